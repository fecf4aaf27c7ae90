package stores

import (
	"bytes"
	"context"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	cst "wuyrush.io/photo/constants"
	pe "wuyrush.io/photo/errors"
)

type mockS3 struct {
	s3iface.S3API
	mock.Mock
}

func (m *mockS3) HeadBucketWithContext(ctx aws.Context, in *s3.HeadBucketInput, opts ...request.Option) (*s3.HeadBucketOutput, error) {
	args := m.Called(in)
	out, _ := args.Get(0).(*s3.HeadBucketOutput)
	return out, args.Error(1)
}

func (m *mockS3) CreateBucketWithContext(ctx aws.Context, in *s3.CreateBucketInput, opts ...request.Option) (*s3.CreateBucketOutput, error) {
	args := m.Called(in)
	out, _ := args.Get(0).(*s3.CreateBucketOutput)
	return out, args.Error(1)
}

func (m *mockS3) HeadObjectWithContext(ctx aws.Context, in *s3.HeadObjectInput, opts ...request.Option) (*s3.HeadObjectOutput, error) {
	args := m.Called(in)
	out, _ := args.Get(0).(*s3.HeadObjectOutput)
	return out, args.Error(1)
}

func (m *mockS3) PutObjectWithContext(ctx aws.Context, in *s3.PutObjectInput, opts ...request.Option) (*s3.PutObjectOutput, error) {
	args := m.Called(in)
	out, _ := args.Get(0).(*s3.PutObjectOutput)
	return out, args.Error(1)
}

func (m *mockS3) CopyObjectWithContext(ctx aws.Context, in *s3.CopyObjectInput, opts ...request.Option) (*s3.CopyObjectOutput, error) {
	args := m.Called(in)
	out, _ := args.Get(0).(*s3.CopyObjectOutput)
	return out, args.Error(1)
}

func (m *mockS3) GetObjectWithContext(ctx aws.Context, in *s3.GetObjectInput, opts ...request.Option) (*s3.GetObjectOutput, error) {
	args := m.Called(in)
	out, _ := args.Get(0).(*s3.GetObjectOutput)
	return out, args.Error(1)
}

func (m *mockS3) DeleteObjectWithContext(ctx aws.Context, in *s3.DeleteObjectInput, opts ...request.Option) (*s3.DeleteObjectOutput, error) {
	args := m.Called(in)
	out, _ := args.Get(0).(*s3.DeleteObjectOutput)
	return out, args.Error(1)
}

func (m *mockS3) ListBucketsWithContext(ctx aws.Context, in *s3.ListBucketsInput, opts ...request.Option) (*s3.ListBucketsOutput, error) {
	args := m.Called(in)
	out, _ := args.Get(0).(*s3.ListBucketsOutput)
	return out, args.Error(1)
}

func s3NotFound() error {
	return awserr.NewRequestFailure(awserr.New("NotFound", "Not Found", nil), http.StatusNotFound, "fake-request-id")
}

func s3Unavailable() error {
	return awserr.NewRequestFailure(awserr.New("ServiceUnavailable", "try later", nil), http.StatusServiceUnavailable, "fake-request-id")
}

const fakeBucket, fakeKey = "photos", "7c9e6679-7425-40de-944b-e07fc1f90ae7.jpg"

func TestS3Store_EnsureContainer(t *testing.T) {
	tcs := []struct {
		name       string
		region     string
		m          func() *mockS3
		expErrCode pe.ErrCode
	}{
		{
			name: "AlreadyExists",
			m: func() *mockS3 {
				m := &mockS3{}
				m.On("HeadBucketWithContext", mock.Anything).Return(&s3.HeadBucketOutput{}, nil)
				return m
			},
		},
		{
			name:   "CreatedPrivate",
			region: "us-east-1",
			m: func() *mockS3 {
				m := &mockS3{}
				m.On("HeadBucketWithContext", mock.Anything).Return(nil, s3NotFound())
				m.On("CreateBucketWithContext", mock.Anything).Run(func(args mock.Arguments) {
					in := args.Get(0).(*s3.CreateBucketInput)
					assert.Equal(t, fakeBucket, aws.StringValue(in.Bucket))
					assert.Equal(t, s3.BucketCannedACLPrivate, aws.StringValue(in.ACL))
					assert.Nil(t, in.CreateBucketConfiguration)
				}).Return(&s3.CreateBucketOutput{}, nil)
				return m
			},
		},
		{
			name:   "CreatedInRegion",
			region: "eu-west-1",
			m: func() *mockS3 {
				m := &mockS3{}
				m.On("HeadBucketWithContext", mock.Anything).Return(nil, s3NotFound())
				m.On("CreateBucketWithContext", mock.Anything).Run(func(args mock.Arguments) {
					in := args.Get(0).(*s3.CreateBucketInput)
					require.NotNil(t, in.CreateBucketConfiguration)
					assert.Equal(t, "eu-west-1", aws.StringValue(in.CreateBucketConfiguration.LocationConstraint))
				}).Return(&s3.CreateBucketOutput{}, nil)
				return m
			},
		},
		{
			name: "LostCreationRace",
			m: func() *mockS3 {
				m := &mockS3{}
				m.On("HeadBucketWithContext", mock.Anything).Return(nil, s3NotFound())
				m.On("CreateBucketWithContext", mock.Anything).
					Return(nil, awserr.New(s3.ErrCodeBucketAlreadyOwnedByYou, "mine", nil))
				return m
			},
		},
		{
			name: "HeadFailed",
			m: func() *mockS3 {
				m := &mockS3{}
				m.On("HeadBucketWithContext", mock.Anything).Return(nil, s3Unavailable())
				return m
			},
			expErrCode: pe.ErrCodeServiceFailure,
		},
	}
	for _, c := range tcs {
		t.Run(c.name, func(t *testing.T) {
			m := c.m()
			s := &S3Store{Client: m, Region: c.region}
			err := s.EnsureContainer(context.Background(), fakeBucket)
			m.AssertExpectations(t)
			if c.expErrCode != "" {
				require.NotNil(t, err)
				assert.Equal(t, c.expErrCode, err.Code)
			} else {
				assert.Nil(t, err)
			}
		})
	}
}

func TestS3Store_Properties(t *testing.T) {
	m := &mockS3{}
	m.On("HeadObjectWithContext", mock.Anything).Return(&s3.HeadObjectOutput{
		ContentType:   aws.String(cst.ContentTypePhoto),
		ContentLength: aws.Int64(42),
		// S3 hands metadata keys back canonicalized
		Metadata: map[string]*string{"Htbox-User-Principal": aws.String("alice")},
	}, nil)
	s := &S3Store{Client: m}
	props, err := s.Properties(context.Background(), fakeBucket, fakeKey)
	require.Nil(t, err)
	assert.Equal(t, cst.ContentTypePhoto, props.ContentType)
	assert.Equal(t, int64(42), props.Size)
	assert.Equal(t, "alice", props.Owner())
}

func TestS3Store_Exists(t *testing.T) {
	tcs := []struct {
		name       string
		err        error
		expected   bool
		expErrCode pe.ErrCode
	}{
		{name: "Present", expected: true},
		{name: "Absent", err: s3NotFound()},
		{name: "Unavailable", err: s3Unavailable(), expErrCode: pe.ErrCodeServiceFailure},
	}
	for _, c := range tcs {
		t.Run(c.name, func(t *testing.T) {
			m := &mockS3{}
			var out *s3.HeadObjectOutput
			if c.err == nil {
				out = &s3.HeadObjectOutput{}
			}
			m.On("HeadObjectWithContext", mock.Anything).Return(out, c.err)
			s := &S3Store{Client: m}
			ok, err := s.Exists(context.Background(), fakeBucket, fakeKey)
			assert.Equal(t, c.expected, ok)
			if c.expErrCode != "" {
				require.NotNil(t, err)
				assert.Equal(t, c.expErrCode, err.Code)
			} else {
				assert.Nil(t, err)
			}
		})
	}
}

func TestS3StoreSendsRequestsOnce(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")
	var served int64
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&served, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()
	u, err := url.Parse("s3://" + strings.TrimPrefix(ts.URL, "http://") + "?secure=false")
	require.NoError(t, err)
	s, pErr := NewS3StoreFromURL(u)
	require.Nil(t, pErr)

	ok, pErr := s.Exists(context.Background(), fakeBucket, fakeKey)
	assert.False(t, ok)
	require.NotNil(t, pErr)
	assert.Equal(t, pe.ErrCodeServiceFailure, pErr.Code)
	assert.Equal(t, int64(1), atomic.LoadInt64(&served))
}

func TestS3Store_Upload(t *testing.T) {
	m := &mockS3{}
	m.On("PutObjectWithContext", mock.Anything).Run(func(args mock.Arguments) {
		in := args.Get(0).(*s3.PutObjectInput)
		assert.Equal(t, fakeBucket, aws.StringValue(in.Bucket))
		assert.Equal(t, fakeKey, aws.StringValue(in.Key))
		assert.Equal(t, "alice", aws.StringValue(in.Metadata[cst.MetaKeyOwner]))
		b, err := ioutil.ReadAll(in.Body)
		require.NoError(t, err)
		assert.Equal(t, "content", string(b))
	}).Return(&s3.PutObjectOutput{}, nil)
	s := &S3Store{Client: m}
	// a plain reader, not seekable, must still reach S3 intact
	r := ioutil.NopCloser(strings.NewReader("content"))
	err := s.Upload(context.Background(), fakeBucket, fakeKey, r, map[string]string{"HTBOX-USER-PRINCIPAL": "alice"})
	assert.Nil(t, err)
	m.AssertExpectations(t)
}

func TestS3Store_SetContentTypeKeepsMetadata(t *testing.T) {
	m := &mockS3{}
	meta := map[string]*string{"Htbox-User-Principal": aws.String("alice")}
	m.On("HeadObjectWithContext", mock.Anything).Return(&s3.HeadObjectOutput{Metadata: meta}, nil)
	m.On("CopyObjectWithContext", mock.Anything).Run(func(args mock.Arguments) {
		in := args.Get(0).(*s3.CopyObjectInput)
		assert.Equal(t, fakeBucket+"/"+fakeKey, aws.StringValue(in.CopySource))
		assert.Equal(t, cst.ContentTypePhoto, aws.StringValue(in.ContentType))
		assert.Equal(t, s3.MetadataDirectiveReplace, aws.StringValue(in.MetadataDirective))
		assert.Equal(t, meta, in.Metadata)
	}).Return(&s3.CopyObjectOutput{}, nil)
	s := &S3Store{Client: m}
	assert.Nil(t, s.SetContentType(context.Background(), fakeBucket, fakeKey, cst.ContentTypePhoto))
	m.AssertExpectations(t)
}

func TestS3Store_Download(t *testing.T) {
	m := &mockS3{}
	m.On("GetObjectWithContext", mock.Anything).Return(&s3.GetObjectOutput{
		Body: ioutil.NopCloser(bytes.NewReader([]byte("jpeg"))),
	}, nil)
	s := &S3Store{Client: m}
	buf := &bytes.Buffer{}
	n, err := s.Download(context.Background(), fakeBucket, fakeKey, buf)
	require.Nil(t, err)
	assert.Equal(t, int64(4), n)
	assert.Equal(t, "jpeg", buf.String())
}

func TestS3Store_Delete(t *testing.T) {
	tcs := []struct {
		name     string
		m        func() *mockS3
		expected bool
	}{
		{
			name: "Deleted",
			m: func() *mockS3 {
				m := &mockS3{}
				m.On("HeadObjectWithContext", mock.Anything).Return(&s3.HeadObjectOutput{}, nil)
				m.On("DeleteObjectWithContext", mock.Anything).Return(&s3.DeleteObjectOutput{}, nil)
				return m
			},
			expected: true,
		},
		{
			name: "Absent",
			m: func() *mockS3 {
				m := &mockS3{}
				m.On("HeadObjectWithContext", mock.Anything).Return(nil, s3NotFound())
				return m
			},
			expected: false,
		},
	}
	for _, c := range tcs {
		t.Run(c.name, func(t *testing.T) {
			m := c.m()
			s := &S3Store{Client: m}
			ok, err := s.Delete(context.Background(), fakeBucket, fakeKey)
			assert.Nil(t, err)
			assert.Equal(t, c.expected, ok)
			m.AssertExpectations(t)
		})
	}
}

func TestS3Store_Ping(t *testing.T) {
	m := &mockS3{}
	m.On("ListBucketsWithContext", mock.Anything).Return(nil, s3Unavailable())
	s := &S3Store{Client: m}
	err := s.Ping(context.Background())
	require.NotNil(t, err)
	assert.Equal(t, pe.ErrCodeDependencyFailure, err.Code)
}
