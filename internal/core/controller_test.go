package core

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rescale/pricestrip/internal/api"
	"github.com/rescale/pricestrip/internal/constants"
	"github.com/rescale/pricestrip/internal/diskspace"
	"github.com/rescale/pricestrip/internal/state"
)

// fakeServer mimics the processing service: uploads are stored, processing
// copies each upload to Prosessert_<name>.
type fakeServer struct {
	mu        sync.Mutex
	uploads   map[string]string
	processed []string
	calls     map[string]int

	failUpload  string // when set, upload answers {"error": failUpload}
	failProcess string
	failAll     string
	brokenList  bool
}

func newFakeServer() *fakeServer {
	return &fakeServer{uploads: map[string]string{}, calls: map[string]int{}}
}

func (f *fakeServer) uploaded() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]string, len(f.uploads))
	for k, v := range f.uploads {
		out[k] = v
	}
	return out
}

func (f *fakeServer) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[path]
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (f *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := r.URL.Path
	if strings.HasPrefix(path, constants.PathDownload) {
		f.calls[constants.PathDownload]++
	} else {
		f.calls[path]++
	}

	switch {
	case path == constants.PathListFiles:
		if f.brokenList {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"files": append([]string{}, f.processed...)})

	case path == constants.PathUpload:
		if f.failUpload != "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": f.failUpload})
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		for _, fh := range r.MultipartForm.File[constants.UploadFieldName] {
			rc, _ := fh.Open()
			b, _ := io.ReadAll(rc)
			rc.Close()
			f.uploads[fh.Filename] = string(b)
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Filer lastet opp"})

	case path == constants.PathProcess:
		if f.failProcess != "" {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": f.failProcess})
			return
		}
		for name := range f.uploads {
			f.processed = append(f.processed, constants.ProcessedPrefix+name)
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Filer prosessert"})

	case path == constants.PathDownloadAll:
		if f.failAll != "" {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": f.failAll})
			return
		}
		w.Header().Set("Content-Type", "application/zip")
		w.Write([]byte("PK\x03\x04zip"))

	case strings.HasPrefix(path, constants.PathDownload):
		name := strings.TrimPrefix(path, constants.PathDownload)
		for _, p := range f.processed {
			if p == name {
				w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
				w.Write([]byte("payload:" + name))
				return
			}
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Fil ikke funnet"})

	default:
		http.NotFound(w, r)
	}
}

func newTestController(t *testing.T, fake *fakeServer) (*Controller, string) {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	dir := t.TempDir()
	client := api.NewClientWithHTTP(srv.URL, srv.Client(), nil)
	return NewController(client, nil, Options{DownloadDir: dir}), dir
}

func newDeadController(t *testing.T) *Controller {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	client := api.NewClientWithHTTP(url, http.DefaultClient, nil)
	return NewController(client, nil, Options{DownloadDir: t.TempDir()})
}

func writeLocal(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

func TestInitializeRendersList(t *testing.T) {
	fake := newFakeServer()
	fake.processed = []string{"Prosessert_b.pdf", "Prosessert_a.pdf"}
	c, _ := newTestController(t, fake)

	require.NoError(t, c.Initialize(context.Background()))
	assert.Equal(t, []string{"Prosessert_b.pdf", "Prosessert_a.pdf"}, c.FileList().Files())
	assert.True(t, c.FileList().DownloadAllVisible())
}

func TestInitializeEmptyHidesDownloadAll(t *testing.T) {
	c, _ := newTestController(t, newFakeServer())

	require.NoError(t, c.Initialize(context.Background()))
	assert.Empty(t, c.FileList().Files())
	assert.False(t, c.FileList().DownloadAllVisible())
}

func TestRefreshFailureIsSilent(t *testing.T) {
	fake := newFakeServer()
	fake.processed = []string{"Prosessert_a.pdf"}
	c, _ := newTestController(t, fake)
	require.NoError(t, c.Initialize(context.Background()))

	fake.mu.Lock()
	fake.brokenList = true
	fake.mu.Unlock()

	err := c.RefreshFileList(context.Background())
	assert.True(t, api.IsTransportError(err))
	assert.Equal(t, []string{"Prosessert_a.pdf"}, c.FileList().Files())
	assert.Equal(t, state.Status{}, c.Status().Get(state.RegionUpload))
	assert.Equal(t, state.Status{}, c.Status().Get(state.RegionProcess))
}

func TestSubmitUploadEmptySelection(t *testing.T) {
	fake := newFakeServer()
	c, _ := newTestController(t, fake)

	err := c.SubmitUpload(context.Background())
	assert.ErrorIs(t, err, ErrEmptySelection)
	assert.Equal(t, state.Status{Message: constants.MsgSelectAtLeastOne, Category: state.CategoryError}, c.Status().Get(state.RegionUpload))
	assert.Zero(t, fake.count(constants.PathUpload))
}

func TestSubmitUploadSuccess(t *testing.T) {
	fake := newFakeServer()
	c, _ := newTestController(t, fake)
	local := t.TempDir()

	require.NoError(t, c.AddToSelection(writeLocal(t, local, "a.pdf", "AAA"), writeLocal(t, local, "b.pdf", "BB")))
	require.NoError(t, c.SubmitUpload(context.Background()))

	assert.Equal(t, state.Status{Message: "Filer lastet opp", Category: state.CategorySuccess}, c.Status().Get(state.RegionUpload))
	assert.Zero(t, c.Selection().Len())
	assert.Equal(t, map[string]string{"a.pdf": "AAA", "b.pdf": "BB"}, fake.uploaded())
	assert.Equal(t, 1, fake.count(constants.PathListFiles))
}

func TestSubmitUploadServerErrorKeepsSelection(t *testing.T) {
	fake := newFakeServer()
	fake.failUpload = "Ugyldig filtype"
	c, _ := newTestController(t, fake)

	require.NoError(t, c.AddToSelection(writeLocal(t, t.TempDir(), "a.txt", "x")))
	err := c.SubmitUpload(context.Background())

	_, isServer := api.AsServerError(err)
	assert.True(t, isServer)
	assert.Equal(t, state.Status{Message: "Ugyldig filtype", Category: state.CategoryError}, c.Status().Get(state.RegionUpload))
	assert.Equal(t, 1, c.Selection().Len())
	assert.Zero(t, fake.count(constants.PathListFiles))
}

func TestSubmitUploadTransportFailure(t *testing.T) {
	c := newDeadController(t)
	require.NoError(t, c.AddToSelection(writeLocal(t, t.TempDir(), "a.pdf", "x")))

	err := c.SubmitUpload(context.Background())
	assert.True(t, api.IsTransportError(err))
	assert.Equal(t, constants.MsgUploadFailed, c.Status().Get(state.RegionUpload).Message)
	assert.Equal(t, 1, c.Selection().Len())
}

func TestSubmitUploadVanishedFile(t *testing.T) {
	fake := newFakeServer()
	c, _ := newTestController(t, fake)
	p := writeLocal(t, t.TempDir(), "a.pdf", "x")
	require.NoError(t, c.AddToSelection(p))
	require.NoError(t, os.Remove(p))

	err := c.SubmitUpload(context.Background())
	require.Error(t, err)
	assert.Equal(t, constants.MsgUploadFailed, c.Status().Get(state.RegionUpload).Message)
}

func TestAddToSelectionMissingPathLeavesSelection(t *testing.T) {
	c, _ := newTestController(t, newFakeServer())
	dir := t.TempDir()
	require.NoError(t, c.AddToSelection(writeLocal(t, dir, "a.pdf", "x")))

	err := c.AddToSelection(writeLocal(t, dir, "b.pdf", "y"), filepath.Join(dir, "missing.pdf"))
	require.Error(t, err)
	assert.Equal(t, 1, c.Selection().Len())

	assert.Error(t, c.AddToSelection(dir))
}

func TestRemoveFromSelection(t *testing.T) {
	c, _ := newTestController(t, newFakeServer())
	c.UpdateSelection([]state.LocalFile{{Name: "a"}, {Name: "b"}, {Name: "c"}})

	assert.True(t, c.RemoveFromSelection(0))
	assert.False(t, c.RemoveFromSelection(5))

	files := c.Selection().Files()
	require.Len(t, files, 2)
	assert.Equal(t, "b", files[0].Name)
	assert.Equal(t, "c", files[1].Name)
}

func TestTriggerProcessing(t *testing.T) {
	fake := newFakeServer()
	fake.uploads["a.pdf"] = "A"
	c, _ := newTestController(t, fake)

	require.NoError(t, c.TriggerProcessing(context.Background()))
	assert.Equal(t, state.Status{Message: "Filer prosessert", Category: state.CategorySuccess}, c.Status().Get(state.RegionProcess))
	assert.Equal(t, []string{"Prosessert_a.pdf"}, c.FileList().Files())
	assert.True(t, c.FileList().DownloadAllVisible())
}

func TestTriggerProcessingServerError(t *testing.T) {
	fake := newFakeServer()
	fake.failProcess = "Ingen filer å prosessere"
	c, _ := newTestController(t, fake)

	require.Error(t, c.TriggerProcessing(context.Background()))
	assert.Equal(t, "Ingen filer å prosessere", c.Status().Get(state.RegionProcess).Message)
	assert.True(t, c.Status().Get(state.RegionProcess).IsError())
	assert.Zero(t, fake.count(constants.PathListFiles))
}

func TestTriggerProcessingTransportFailure(t *testing.T) {
	c := newDeadController(t)

	require.Error(t, c.TriggerProcessing(context.Background()))
	assert.Equal(t, constants.MsgProcessFailed, c.Status().Get(state.RegionProcess).Message)
}

func TestTriggerProcessingTwiceIssuesTwoRequests(t *testing.T) {
	fake := newFakeServer()
	c, _ := newTestController(t, fake)

	require.NoError(t, c.TriggerProcessing(context.Background()))
	require.NoError(t, c.TriggerProcessing(context.Background()))
	assert.Equal(t, 2, fake.count(constants.PathProcess))
}

func TestDownloadAllSavesArchive(t *testing.T) {
	fake := newFakeServer()
	c, dir := newTestController(t, fake)

	path, err := c.DownloadAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, constants.DownloadAllFileName), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "PK\x03\x04zip", string(data))
	assert.Equal(t, state.Status{}, c.Status().Get(state.RegionProcess))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file should be removed")
}

func TestDownloadAllServerError(t *testing.T) {
	fake := newFakeServer()
	fake.failAll = "Ingen prosesserte filer"
	c, dir := newTestController(t, fake)

	_, err := c.DownloadAll(context.Background())
	require.Error(t, err)
	assert.Equal(t, state.Status{Message: "Ingen prosesserte filer", Category: state.CategoryError}, c.Status().Get(state.RegionProcess))

	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries)
}

func TestDownloadAllTransportFailure(t *testing.T) {
	c := newDeadController(t)

	_, err := c.DownloadAll(context.Background())
	require.Error(t, err)
	assert.Equal(t, constants.MsgDownloadFailed, c.Status().Get(state.RegionProcess).Message)
}

func TestDownloadFile(t *testing.T) {
	fake := newFakeServer()
	fake.processed = []string{"Prosessert_my file.pdf"}
	c, dir := newTestController(t, fake)

	path, err := c.DownloadFile(context.Background(), "Prosessert_my file.pdf")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Prosessert_my file.pdf"), path)

	data, _ := os.ReadFile(path)
	assert.Equal(t, "payload:Prosessert_my file.pdf", string(data))
}

func TestDownloadFileNotFound(t *testing.T) {
	c, _ := newTestController(t, newFakeServer())

	_, err := c.DownloadFile(context.Background(), "nope.pdf")
	require.Error(t, err)
	assert.Equal(t, "Fil ikke funnet", c.Status().Get(state.RegionProcess).Message)
}

func TestDownloadLinkEscapes(t *testing.T) {
	c, _ := newTestController(t, newFakeServer())

	link := c.DownloadLink("Prosessert_a b.pdf")
	assert.True(t, strings.HasSuffix(link, "/download/Prosessert_a%20b.pdf"), link)
}

// stubService lets tests control ListFiles timing.
type stubService struct {
	Service
	list func(ctx context.Context) ([]string, error)
}

func (s *stubService) ListFiles(ctx context.Context) ([]string, error) { return s.list(ctx) }

func TestStaleRefreshIsDiscarded(t *testing.T) {
	var call int32
	releaseFirst := make(chan struct{})
	firstStarted := make(chan struct{})

	svc := &stubService{list: func(ctx context.Context) ([]string, error) {
		if atomic.AddInt32(&call, 1) == 1 {
			close(firstStarted)
			<-releaseFirst
			return []string{"old.pdf"}, nil
		}
		return []string{"new.pdf"}, nil
	}}
	c := NewController(svc, nil, Options{DownloadDir: t.TempDir()})

	done := make(chan error)
	go func() { done <- c.RefreshFileList(context.Background()) }()
	<-firstStarted

	require.NoError(t, c.RefreshFileList(context.Background()))
	close(releaseFirst)
	require.NoError(t, <-done)

	assert.Equal(t, []string{"new.pdf"}, c.FileList().Files())
}

type recordingProgress struct {
	mu        sync.Mutex
	uploads   int
	downloads []string
	bytes     int
	finished  int
}

type recordingUpload struct{ p *recordingProgress }

func (u *recordingUpload) Wrap(index int, name string, size int64, r io.Reader) io.Reader { return r }
func (u *recordingUpload) Done(index int, err error)                                      {}
func (u *recordingUpload) Finish() {
	u.p.mu.Lock()
	u.p.finished++
	u.p.mu.Unlock()
}

type recordingDownload struct{ p *recordingProgress }

func (d *recordingDownload) Write(b []byte) (int, error) {
	d.p.mu.Lock()
	d.p.bytes += len(b)
	d.p.mu.Unlock()
	return len(b), nil
}

func (d *recordingDownload) Finish() {
	d.p.mu.Lock()
	d.p.finished++
	d.p.mu.Unlock()
}

func (p *recordingProgress) Upload(files []state.LocalFile) UploadProgress {
	p.mu.Lock()
	p.uploads++
	p.mu.Unlock()
	return &recordingUpload{p: p}
}

func (p *recordingProgress) Download(name string, size int64) DownloadProgress {
	p.mu.Lock()
	p.downloads = append(p.downloads, name)
	p.mu.Unlock()
	return &recordingDownload{p: p}
}

func TestProgressReporterIsDriven(t *testing.T) {
	fake := newFakeServer()
	c, _ := newTestController(t, fake)
	prog := &recordingProgress{}
	c.SetProgress(prog)

	require.NoError(t, c.AddToSelection(writeLocal(t, t.TempDir(), "a.pdf", "x")))
	require.NoError(t, c.SubmitUpload(context.Background()))
	_, err := c.DownloadAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, prog.uploads)
	assert.Equal(t, []string{constants.DownloadAllFileName}, prog.downloads)
	assert.Equal(t, len("PK\x03\x04zip"), prog.bytes)
	assert.Equal(t, 2, prog.finished)
}

func TestSaverRejectsBadNames(t *testing.T) {
	s := &Saver{Dir: t.TempDir()}
	for _, name := range []string{"", ".", "..", "/"} {
		_, _, err := s.Save(name, strings.NewReader("x"))
		assert.True(t, errors.Is(err, ErrInvalidFileName), "name %q", name)
	}
}

func TestSaverStripsDirectories(t *testing.T) {
	dir := t.TempDir()
	s := &Saver{Dir: dir}

	path, n, err := s.Save("../../etc/passwd", strings.NewReader("abc"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "passwd"), path)
	assert.Equal(t, int64(3), n)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, io.ErrUnexpectedEOF }

func TestSaverRemovesTempOnFailure(t *testing.T) {
	dir := t.TempDir()
	s := &Saver{Dir: dir}

	_, _, err := s.Save("a.zip", failingReader{})
	require.Error(t, err)

	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries)
}

type oversizedService struct {
	Service
}

func (oversizedService) DownloadAll(context.Context) (*api.Download, error) {
	return &api.Download{
		Body:     io.NopCloser(strings.NewReader("")),
		Size:     1 << 62,
		FileName: constants.DownloadAllFileName,
	}, nil
}

func TestDownloadAllRefusedWithoutDiskSpace(t *testing.T) {
	dir := t.TempDir()
	if _, ok := diskspace.Available(dir); !ok {
		t.Skip("free space not available on this filesystem")
	}
	c := NewController(oversizedService{}, nil, Options{DownloadDir: dir})

	_, err := c.DownloadAll(context.Background())
	require.Error(t, err)
	assert.True(t, diskspace.IsInsufficientSpaceError(err))
	assert.Equal(t, state.Status{Message: constants.MsgNoDiskSpace, Category: state.CategoryError},
		c.Status().Get(state.RegionProcess))

	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries)
}
