package wiki

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/kalambet/dwiki/internal/cache"
	"github.com/kalambet/dwiki/internal/store"
)

// fakeStore is an in-memory content store with a single root folder.
type fakeStore struct {
	files     map[string]store.File // id -> file (all direct children of "root")
	contents  map[string][]byte
	mimes     map[string]string
	trees     map[string][]store.Element
	metas     map[string]*store.FileMeta
	parents   map[string][]string
	listCalls int
	listErr   error
	readErr   map[string]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		files:    make(map[string]store.File),
		contents: make(map[string][]byte),
		mimes:    make(map[string]string),
		trees:    make(map[string][]store.Element),
		metas:    make(map[string]*store.FileMeta),
		parents:  make(map[string][]string),
		readErr:  make(map[string]error),
	}
}

func (f *fakeStore) addMarkdown(id, name string, modified time.Time, body string) {
	f.files[id] = store.File{ID: id, Name: name, MimeType: store.MimeMarkdown, ModifiedTime: modified}
	f.contents[id] = []byte(body)
	f.mimes[id] = store.MimeMarkdown
	f.parents[id] = []string{"root"}
}

func (f *fakeStore) addRichDoc(id, name string, modified time.Time, elements []store.Element) {
	f.files[id] = store.File{ID: id, Name: name, MimeType: store.MimeRichDoc, ModifiedTime: modified}
	f.trees[id] = elements
	f.parents[id] = []string{"root"}
}

func (f *fakeStore) ListFolder(_ context.Context, folderID string) ([]store.File, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	if folderID != "root" {
		return nil, store.ErrNotFound
	}
	// Stable order: named files sorted by id for determinism.
	ids := make([]string, 0, len(f.files))
	for id := range f.files {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	files := make([]store.File, 0, len(ids))
	for _, id := range ids {
		files = append(files, f.files[id])
	}
	return files, nil
}

func (f *fakeStore) ReadFile(_ context.Context, fileID string) ([]byte, string, error) {
	if err, ok := f.readErr[fileID]; ok {
		return nil, "", err
	}
	data, ok := f.contents[fileID]
	if !ok {
		return nil, "", store.ErrNotFound
	}
	return data, f.mimes[fileID], nil
}

func (f *fakeStore) DocTree(_ context.Context, fileID string) ([]store.Element, error) {
	tree, ok := f.trees[fileID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return tree, nil
}

func (f *fakeStore) FileMeta(_ context.Context, fileID string) (*store.FileMeta, error) {
	if m, ok := f.metas[fileID]; ok {
		return m, nil
	}
	if file, ok := f.files[fileID]; ok {
		return &store.FileMeta{ModifiedTime: file.ModifiedTime}, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) Revisions(context.Context, string) ([]store.Revision, error) {
	return nil, nil
}

func (f *fakeStore) Parents(_ context.Context, fileID string) ([]string, error) {
	return f.parents[fileID], nil
}

func (f *fakeStore) ModifiedTime(_ context.Context, fileID string) (time.Time, error) {
	if file, ok := f.files[fileID]; ok {
		return file.ModifiedTime, nil
	}
	return time.Time{}, store.ErrNotFound
}

var baseTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// newCorpus builds the three-file corpus from the end-to-end scenario:
// B.md newest, A.md in between, C.md oldest as a rich document.
func newCorpus() *fakeStore {
	fs := newFakeStore()
	fs.addMarkdown("f-a", "A.md", baseTime.Add(-time.Hour), "# A\nalpha content here")
	fs.addMarkdown("f-b", "B.md", baseTime, "# B\nbeta content here")
	fs.addRichDoc("f-c", "C.md", baseTime.Add(-2*time.Hour), []store.Element{
		store.Paragraph{HeadingLevel: 1, Spans: []store.Span{{Text: "C"}}},
		store.Paragraph{Spans: []store.Span{{Text: "plain prose line"}}},
		store.Paragraph{Spans: []store.Span{{Text: "fmt.Println(42)", FontFamily: "Consolas"}}},
	})
	return fs
}

func newTestService(t *testing.T, fs *fakeStore) *Service {
	t.Helper()
	c, err := cache.Open(":memory:")
	if err != nil {
		t.Fatalf("opening cache: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return NewService(fs, c, "root", time.Minute, false)
}

func TestIndex_Ordering(t *testing.T) {
	svc := newTestService(t, newCorpus())

	articles, err := svc.Index(context.Background())
	if err != nil {
		t.Fatalf("Index: %v", err)
	}

	var slugs []string
	for _, a := range articles {
		slugs = append(slugs, a.Slug)
	}
	want := []string{"b", "a", "c"}
	if len(slugs) != len(want) {
		t.Fatalf("slugs = %v, want %v", slugs, want)
	}
	for i := range want {
		if slugs[i] != want[i] {
			t.Fatalf("slugs = %v, want %v", slugs, want)
		}
	}
}

func TestIndex_CachedWithinTTL(t *testing.T) {
	fs := newCorpus()
	svc := newTestService(t, fs)

	if _, err := svc.Index(context.Background()); err != nil {
		t.Fatalf("Index: %v", err)
	}
	calls := fs.listCalls

	if _, err := svc.Index(context.Background()); err != nil {
		t.Fatalf("Index: %v", err)
	}
	if fs.listCalls != calls {
		t.Errorf("second Index re-enumerated: %d -> %d list calls", calls, fs.listCalls)
	}
}

func TestIndex_ClearCacheForcesReenumeration(t *testing.T) {
	fs := newCorpus()
	svc := newTestService(t, fs)

	if _, err := svc.Index(context.Background()); err != nil {
		t.Fatalf("Index: %v", err)
	}
	calls := fs.listCalls

	if err := svc.ClearCache(); err != nil {
		t.Fatalf("ClearCache: %v", err)
	}
	if _, err := svc.Index(context.Background()); err != nil {
		t.Fatalf("Index: %v", err)
	}
	if fs.listCalls <= calls {
		t.Error("Index after ClearCache did not re-enumerate")
	}
}

func TestIndex_IgnoresNonArticles(t *testing.T) {
	fs := newCorpus()
	fs.files["f-img"] = store.File{ID: "f-img", Name: "logo.png", MimeType: "image/png", ModifiedTime: baseTime}
	fs.files["f-dir"] = store.File{ID: "f-dir", Name: "sub.md", MimeType: store.MimeFolder, ModifiedTime: baseTime}
	svc := newTestService(t, fs)

	articles, err := svc.Index(context.Background())
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	if len(articles) != 3 {
		t.Errorf("got %d articles, want 3 (non-articles filtered)", len(articles))
	}
}

func TestIndex_CaseInsensitiveSuffix(t *testing.T) {
	fs := newFakeStore()
	fs.addMarkdown("f-u", "UPPER.MD", baseTime, "upper")
	svc := newTestService(t, fs)

	articles, err := svc.Index(context.Background())
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	if len(articles) != 1 || articles[0].Slug != "upper" {
		t.Errorf("articles = %+v, want one slug \"upper\"", articles)
	}
}

func TestIndex_EnumerationFailure(t *testing.T) {
	fs := newCorpus()
	fs.listErr = errors.New("store down")
	svc := newTestService(t, fs)

	if _, err := svc.Index(context.Background()); err == nil {
		t.Fatal("expected enumeration failure to surface")
	}
}

func TestPage_Markdown(t *testing.T) {
	svc := newTestService(t, newCorpus())

	page, err := svc.Page(context.Background(), "b")
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	if page.Kind != "md" {
		t.Errorf("Kind = %q, want md", page.Kind)
	}
	if page.Markdown != "# B\nbeta content here" {
		t.Errorf("Markdown = %q", page.Markdown)
	}
	if page.UpdatedISO == "" {
		t.Error("UpdatedISO empty")
	}
	if page.UpdatedBySource == "" {
		t.Error("UpdatedBySource empty")
	}
}

func TestPage_RichDocConversion(t *testing.T) {
	svc := newTestService(t, newCorpus())

	page, err := svc.Page(context.Background(), "c")
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	if page.Kind != "md" {
		t.Errorf("Kind = %q, want md", page.Kind)
	}
	want := "# C\nplain prose line\n\n```\nfmt.Println(42)\n```\n"
	if page.Markdown != want {
		t.Errorf("Markdown = %q, want %q", page.Markdown, want)
	}
}

func TestPage_PDFBySignature(t *testing.T) {
	fs := newCorpus()
	// Declared as markdown, but the bytes say PDF.
	fs.addMarkdown("f-p", "Paper.md", baseTime, "%PDF-1.4 fake body")
	svc := newTestService(t, fs)

	page, err := svc.Page(context.Background(), "paper")
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	if page.Kind != "pdf" {
		t.Errorf("Kind = %q, want pdf", page.Kind)
	}
	if page.PDFBase64 == "" {
		t.Error("PDFBase64 empty")
	}
	if page.Markdown != "" {
		t.Error("Markdown must be empty for pdf pages")
	}
}

func TestPage_NotFound(t *testing.T) {
	svc := newTestService(t, newCorpus())

	_, err := svc.Page(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestPage_ReadFailureFatal(t *testing.T) {
	fs := newCorpus()
	fs.readErr["f-b"] = errors.New("io failure")
	svc := newTestService(t, fs)

	_, err := svc.Page(context.Background(), "b")
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want fatal read error", err)
	}
}

func TestWordCloud(t *testing.T) {
	svc := newTestService(t, newCorpus())

	result, err := svc.WordCloud(context.Background())
	if err != nil {
		t.Fatalf("WordCloud: %v", err)
	}
	if result.TotalDocs != 3 {
		t.Errorf("TotalDocs = %d, want 3", result.TotalDocs)
	}

	counts := make(map[string]int)
	for _, w := range result.Words {
		counts[w.Word] = w.Count
	}
	// "content" appears in both markdown articles.
	if counts["content"] != 2 {
		t.Errorf("count(content) = %d, want 2", counts["content"])
	}
	// The rich doc's implicit code fence must not contribute tokens.
	if counts["println"] != 0 {
		t.Errorf("code token leaked into word cloud: %v", result.Words)
	}
	// Prose from the rich document does contribute.
	if counts["prose"] != 1 {
		t.Errorf("count(prose) = %d, want 1", counts["prose"])
	}
}

func TestWordCloud_SkipsFailingArticles(t *testing.T) {
	fs := newCorpus()
	fs.readErr["f-a"] = errors.New("io failure")
	svc := newTestService(t, fs)

	result, err := svc.WordCloud(context.Background())
	if err != nil {
		t.Fatalf("WordCloud: %v", err)
	}
	if result.TotalDocs != 2 {
		t.Errorf("TotalDocs = %d, want 2 (failing article skipped)", result.TotalDocs)
	}
}

func TestWordCloud_SkipsEmptyArticles(t *testing.T) {
	fs := newCorpus()
	fs.addMarkdown("f-e", "Empty.md", baseTime, "   \n\t\n")
	svc := newTestService(t, fs)

	result, err := svc.WordCloud(context.Background())
	if err != nil {
		t.Fatalf("WordCloud: %v", err)
	}
	if result.TotalDocs != 3 {
		t.Errorf("TotalDocs = %d, want 3 (whitespace-only article skipped)", result.TotalDocs)
	}
}

func TestFile_ContainmentGate(t *testing.T) {
	fs := newCorpus()
	fs.contents["f-outside"] = []byte("secret")
	fs.mimes["f-outside"] = "image/png"
	fs.parents["f-outside"] = []string{"elsewhere"}
	svc := newTestService(t, fs)

	// Contained file serves.
	data, mimeType, err := svc.File(context.Background(), "f-b")
	if err != nil {
		t.Fatalf("File(contained): %v", err)
	}
	if len(data) == 0 || mimeType != store.MimeMarkdown {
		t.Errorf("File = %d bytes, %q", len(data), mimeType)
	}

	// Outside file denied with the same error as a missing one.
	if _, _, err := svc.File(context.Background(), "f-outside"); !errors.Is(err, ErrNotFound) {
		t.Errorf("File(outside) err = %v, want ErrNotFound", err)
	}
	if _, _, err := svc.File(context.Background(), "f-missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("File(missing) err = %v, want ErrNotFound", err)
	}
}
