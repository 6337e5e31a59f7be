package naip

import (
	"context"
	"os"
	"testing"

	"github.com/aws/smithy-go"
	"github.com/rotisserie/eris"

	"github.com/sells-group/naip-sync/internal/model"
	"github.com/sells-group/naip-sync/internal/s3store"
	"github.com/sells-group/naip-sync/pkg/geocode"
)

// fakeStore is an in-memory ObjectStore double keyed by "bucket/key".
type fakeStore struct {
	objects   map[string][]byte
	existsErr map[string]error

	copyErrs  []error // popped per Copy call; nil entries succeed
	uploadErr error

	headCalls     int
	copyCalls     int
	downloadCalls int

	uploadPaths       []string
	uploadFileExisted []bool
	putKeys           map[string][]byte
	tagKeys           map[string][]s3store.Tag
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		objects:   map[string][]byte{},
		existsErr: map[string]error{},
		putKeys:   map[string][]byte{},
		tagKeys:   map[string][]s3store.Tag{},
	}
}

func loc(bucket, key string) string { return bucket + "/" + key }

func (f *fakeStore) Exists(_ context.Context, bucket, key string, _ bool) (bool, error) {
	f.headCalls++
	if err, ok := f.existsErr[loc(bucket, key)]; ok {
		return false, err
	}
	_, ok := f.objects[loc(bucket, key)]
	return ok, nil
}

func (f *fakeStore) Copy(_ context.Context, srcBucket, srcKey, dstBucket, dstKey string) error {
	f.copyCalls++
	if len(f.copyErrs) > 0 {
		err := f.copyErrs[0]
		f.copyErrs = f.copyErrs[1:]
		if err != nil {
			return err
		}
	}
	f.objects[loc(dstBucket, dstKey)] = f.objects[loc(srcBucket, srcKey)]
	return nil
}

func (f *fakeStore) Tag(_ context.Context, _, key string, tags []s3store.Tag) error {
	f.tagKeys[key] = tags
	return nil
}

func (f *fakeStore) Download(_ context.Context, bucket, key string, _ bool) ([]byte, error) {
	f.downloadCalls++
	data, ok := f.objects[loc(bucket, key)]
	if !ok {
		return nil, eris.Wrap(&smithy.GenericAPIError{Code: "NoSuchKey"}, "fake get")
	}
	return data, nil
}

func (f *fakeStore) UploadFile(_ context.Context, bucket, key, path string) error {
	f.uploadPaths = append(f.uploadPaths, path)
	_, statErr := os.Stat(path)
	f.uploadFileExisted = append(f.uploadFileExisted, statErr == nil)
	if f.uploadErr != nil {
		return f.uploadErr
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	f.objects[loc(bucket, key)] = data
	return nil
}

func (f *fakeStore) Put(_ context.Context, bucket, key string, body []byte, _ string) error {
	f.putKeys[key] = body
	f.objects[loc(bucket, key)] = body
	return nil
}

// fakeGeocoder plays back one canned result or error.
type fakeGeocoder struct {
	result *geocode.Result
	err    error
	calls  int
}

func (g *fakeGeocoder) GeocodeZip(context.Context, string) (*geocode.Result, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return g.result, nil
}

// panicGeocoder fails the test when the resolver reaches for the network.
type panicGeocoder struct{ t *testing.T }

func (g *panicGeocoder) GeocodeZip(context.Context, string) (*geocode.Result, error) {
	g.t.Fatal("geocoder must not be called")
	return nil, nil
}

// fakeHistory records run lifecycle calls.
type fakeHistory struct {
	created   []string
	completed map[string]model.RunStatus
	summaries map[string]*model.RunSummary
}

func newFakeHistory() *fakeHistory {
	return &fakeHistory{
		completed: map[string]model.RunStatus{},
		summaries: map[string]*model.RunSummary{},
	}
}

func (h *fakeHistory) CreateRun(_ context.Context, zip string) (*model.SyncRun, error) {
	id := "run-" + zip
	h.created = append(h.created, id)
	return &model.SyncRun{ID: id, ZipCode: zip, Status: model.RunStatusRunning}, nil
}

func (h *fakeHistory) CompleteRun(_ context.Context, id string, status model.RunStatus, summary *model.RunSummary) error {
	h.completed[id] = status
	h.summaries[id] = summary
	return nil
}

// validTIFF returns a minimal little-endian TIFF header plus padding.
func validTIFF() []byte {
	return []byte{'I', 'I', 0x2A, 0x00, 0x08, 0x00, 0x00, 0x00, 0x00, 0x00}
}
