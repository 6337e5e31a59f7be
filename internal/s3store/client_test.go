package s3store

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI records inputs and plays back canned responses.
type fakeAPI struct {
	headErr    error
	copyInput  *s3.CopyObjectInput
	copyErr    error
	getBody    []byte
	getErr     error
	putInput   *s3.PutObjectInput
	tagInput   *s3.PutObjectTaggingInput
	listPages  []*s3.ListObjectsV2Output
	listInputs []*s3.ListObjectsV2Input
}

func (f *fakeAPI) HeadObject(_ context.Context, _ *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if f.headErr != nil {
		return nil, f.headErr
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeAPI) CopyObject(_ context.Context, params *s3.CopyObjectInput, _ ...func(*s3.Options)) (*s3.CopyObjectOutput, error) {
	f.copyInput = params
	if f.copyErr != nil {
		return nil, f.copyErr
	}
	return &s3.CopyObjectOutput{}, nil
}

func (f *fakeAPI) GetObject(_ context.Context, _ *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(f.getBody))}, nil
}

func (f *fakeAPI) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.putInput = params
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeAPI) PutObjectTagging(_ context.Context, params *s3.PutObjectTaggingInput, _ ...func(*s3.Options)) (*s3.PutObjectTaggingOutput, error) {
	f.tagInput = params
	return &s3.PutObjectTaggingOutput{}, nil
}

func (f *fakeAPI) ListObjectsV2(_ context.Context, params *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.listInputs = append(f.listInputs, params)
	if len(f.listPages) == 0 {
		return &s3.ListObjectsV2Output{}, nil
	}
	page := f.listPages[0]
	f.listPages = f.listPages[1:]
	return page, nil
}

// fakeUploader captures the upload body.
type fakeUploader struct {
	body []byte
	err  error
}

func (f *fakeUploader) Upload(_ context.Context, input *s3.PutObjectInput, _ ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	data, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	f.body = data
	return &manager.UploadOutput{}, nil
}

func TestExists_Present(t *testing.T) {
	c := New(&fakeAPI{}, nil)
	ok, err := c.Exists(context.Background(), "b", "k", false)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestExists_NotFoundIsNotAnError(t *testing.T) {
	c := New(&fakeAPI{headErr: &types.NotFound{}}, nil)
	ok, err := c.Exists(context.Background(), "b", "k", true)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExists_OtherErrorPropagates(t *testing.T) {
	c := New(&fakeAPI{headErr: &smithy.GenericAPIError{Code: "SlowDown"}}, nil)
	ok, err := c.Exists(context.Background(), "b", "k", true)
	require.Error(t, err)
	assert.False(t, ok)
}

func TestCopy_BuildsRequesterPaysCopySource(t *testing.T) {
	api := &fakeAPI{}
	c := New(api, nil)
	require.NoError(t, c.Copy(context.Background(), "src-bucket", "a/b.tif", "dst-bucket", "x/y.tif"))

	require.NotNil(t, api.copyInput)
	assert.Equal(t, "dst-bucket", aws.ToString(api.copyInput.Bucket))
	assert.Equal(t, "x/y.tif", aws.ToString(api.copyInput.Key))
	assert.Equal(t, "src-bucket/a/b.tif", aws.ToString(api.copyInput.CopySource))
	assert.Equal(t, types.RequestPayerRequester, api.copyInput.RequestPayer)
	assert.Equal(t, types.MetadataDirectiveCopy, api.copyInput.MetadataDirective)
}

func TestTag_PreservesOrder(t *testing.T) {
	api := &fakeAPI{}
	c := New(api, nil)
	tags := []Tag{{Key: "Source", Value: "NAIP"}, {Key: "Year", Value: "2022"}}
	require.NoError(t, c.Tag(context.Background(), "b", "k", tags))

	require.NotNil(t, api.tagInput)
	require.Len(t, api.tagInput.Tagging.TagSet, 2)
	assert.Equal(t, "Source", aws.ToString(api.tagInput.Tagging.TagSet[0].Key))
	assert.Equal(t, "2022", aws.ToString(api.tagInput.Tagging.TagSet[1].Value))
}

func TestDownload_ReadsFullBody(t *testing.T) {
	c := New(&fakeAPI{getBody: []byte("tile-bytes")}, nil)
	data, err := c.Download(context.Background(), "b", "k", true)
	require.NoError(t, err)
	assert.Equal(t, []byte("tile-bytes"), data)
}

func TestPut_SetsContentType(t *testing.T) {
	api := &fakeAPI{}
	c := New(api, nil)
	require.NoError(t, c.Put(context.Background(), "b", "k.json", []byte(`{}`), "application/json"))
	require.NotNil(t, api.putInput)
	assert.Equal(t, "application/json", aws.ToString(api.putInput.ContentType))
}

func TestUploadFile_StreamsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scratch.tif")
	require.NoError(t, os.WriteFile(path, []byte("scratch-data"), 0o644))

	up := &fakeUploader{}
	c := New(&fakeAPI{}, up)
	require.NoError(t, c.UploadFile(context.Background(), "b", "k", path))
	assert.Equal(t, []byte("scratch-data"), up.body)
}

func TestUploadFile_MissingFile(t *testing.T) {
	c := New(&fakeAPI{}, &fakeUploader{})
	err := c.UploadFile(context.Background(), "b", "k", filepath.Join(t.TempDir(), "missing.tif"))
	require.Error(t, err)
}

func TestListPrefixes(t *testing.T) {
	api := &fakeAPI{listPages: []*s3.ListObjectsV2Output{{
		CommonPrefixes: []types.CommonPrefix{
			{Prefix: aws.String("tx/2022/60cm/rgbir_cog/32096/")},
			{Prefix: aws.String("tx/2022/60cm/rgbir_cog/32097/")},
		},
	}}}
	c := New(api, nil)

	prefixes, err := c.ListPrefixes(context.Background(), "naip-analytic", "tx/2022/60cm/rgbir_cog/", true)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"tx/2022/60cm/rgbir_cog/32096/",
		"tx/2022/60cm/rgbir_cog/32097/",
	}, prefixes)

	require.Len(t, api.listInputs, 1)
	assert.Equal(t, "/", aws.ToString(api.listInputs[0].Delimiter))
	assert.Equal(t, types.RequestPayerRequester, api.listInputs[0].RequestPayer)
}

func TestListAllKeys_Paginates(t *testing.T) {
	api := &fakeAPI{listPages: []*s3.ListObjectsV2Output{
		{
			Contents:              []types.Object{{Key: aws.String("p/one")}},
			IsTruncated:           aws.Bool(true),
			NextContinuationToken: aws.String("tok"),
		},
		{
			Contents: []types.Object{{Key: aws.String("p/two")}},
		},
	}}
	c := New(api, nil)

	keys, err := c.ListAllKeys(context.Background(), "b", "p/")
	require.NoError(t, err)
	assert.Equal(t, []string{"p/one", "p/two"}, keys)
	assert.Len(t, api.listInputs, 2)
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(&types.NoSuchKey{}))
	assert.True(t, IsNotFound(&types.NotFound{}))
	assert.True(t, IsNotFound(&smithy.GenericAPIError{Code: "NotFound"}))
	assert.False(t, IsNotFound(&smithy.GenericAPIError{Code: "AccessDenied"}))
	assert.False(t, IsNotFound(nil))
}
