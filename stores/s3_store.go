package stores

import (
	"bytes"
	"context"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	log "github.com/sirupsen/logrus"
	cst "wuyrush.io/photo/constants"
	pe "wuyrush.io/photo/errors"
	md "wuyrush.io/photo/models"
)

const defaultS3Region = "us-east-1"

// S3Store is a BlobStore backed by Amazon S3 or any S3-compatible service. Containers map to buckets.
// Credentials come from the default AWS provider chain (env vars, shared config, instance role).
type S3Store struct {
	Client s3iface.S3API
	Region string
}

// NewS3StoreFromURL builds the store from s3://[endpoint]?region=&path_style=&secure=. Without an endpoint
// the regional AWS endpoint is used.
func NewS3StoreFromURL(u *url.URL) (*S3Store, *pe.Err) {
	q := u.Query()
	region := q.Get("region")
	if region == "" {
		region = defaultS3Region
	}
	// requests are sent once; startup readiness retries on its own
	cfg := &aws.Config{Region: aws.String(region), MaxRetries: aws.Int(0)}
	if u.Host != "" {
		scheme := "https"
		if !queryBool(q, "secure", true) {
			scheme = "http"
		}
		cfg.Endpoint = aws.String(scheme + "://" + u.Host)
		cfg.S3ForcePathStyle = aws.Bool(queryBool(q, "path_style", true))
	}
	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, pe.NewBadInput("error creating aws session").WithCause(err)
	}
	return &S3Store{Client: s3.New(sess), Region: region}, nil
}

func s3StatusCode(err error) int {
	if rf, ok := err.(awserr.RequestFailure); ok {
		return rf.StatusCode()
	}
	return 0
}

func isS3NotFound(err error) bool {
	if s3StatusCode(err) == http.StatusNotFound {
		return true
	}
	if aerr, ok := err.(awserr.Error); ok {
		switch aerr.Code() {
		case s3.ErrCodeNoSuchKey, s3.ErrCodeNoSuchBucket, "NotFound":
			return true
		}
	}
	return false
}

func (s *S3Store) EnsureContainer(ctx context.Context, container string) *pe.Err {
	clog := log.WithField(cst.LogFieldContainer, container)
	_, err := s.Client.HeadBucketWithContext(ctx, &s3.HeadBucketInput{Bucket: aws.String(container)})
	if err == nil {
		return nil
	}
	if !isS3NotFound(err) {
		clog.WithError(err).Error("EnsureContainer: error calling S3 to check bucket")
		return pe.NewServiceFailure("error checking container").WithCause(err)
	}
	in := &s3.CreateBucketInput{
		Bucket: aws.String(container),
		ACL:    aws.String(s3.BucketCannedACLPrivate),
	}
	// us-east-1 is the one region rejecting an explicit location constraint
	if s.Region != "" && s.Region != defaultS3Region {
		in.CreateBucketConfiguration = &s3.CreateBucketConfiguration{LocationConstraint: aws.String(s.Region)}
	}
	if _, err := s.Client.CreateBucketWithContext(ctx, in); err != nil {
		if aerr, ok := err.(awserr.Error); ok && aerr.Code() == s3.ErrCodeBucketAlreadyOwnedByYou {
			return nil
		}
		clog.WithError(err).Error("EnsureContainer: error calling S3 to create bucket")
		return pe.NewServiceFailure("error creating container").WithCause(err)
	}
	clog.Info("container created")
	return nil
}

func (s *S3Store) head(ctx context.Context, container, name string) (*s3.HeadObjectOutput, *pe.Err) {
	out, err := s.Client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(container),
		Key:    aws.String(name),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, pe.NewNotFound("blob not found").WithCause(err)
		}
		return nil, pe.NewServiceFailure("error retrieving blob properties").WithCause(err)
	}
	return out, nil
}

func (s *S3Store) Exists(ctx context.Context, container, name string) (bool, *pe.Err) {
	if _, err := s.head(ctx, container, name); err != nil {
		if err.Code == pe.ErrCodeNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *S3Store) Properties(ctx context.Context, container, name string) (*md.BlobProperties, *pe.Err) {
	out, err := s.head(ctx, container, name)
	if err != nil {
		return nil, err
	}
	return &md.BlobProperties{
		Name:         name,
		ContentType:  aws.StringValue(out.ContentType),
		Size:         aws.Int64Value(out.ContentLength),
		LastModified: aws.TimeValue(out.LastModified),
		Metadata:     md.LowerKeys(aws.StringValueMap(out.Metadata)),
	}, nil
}

func (s *S3Store) Upload(ctx context.Context, container, name string, r io.Reader, meta map[string]string) *pe.Err {
	body, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := ioutil.ReadAll(r)
		if err != nil {
			return pe.NewServiceFailure("error reading blob content").WithCause(err)
		}
		body = bytes.NewReader(data)
	}
	_, err := s.Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:   aws.String(container),
		Key:      aws.String(name),
		Body:     body,
		Metadata: aws.StringMap(md.LowerKeys(meta)),
	})
	if err != nil {
		if aerr, ok := err.(awserr.Error); ok && aerr.Code() == s3.ErrCodeNoSuchBucket {
			return pe.NewNotFound("container " + container + " not found").WithCause(err)
		}
		log.WithError(err).WithField(cst.LogFieldPhoto, name).Error("Upload: error calling S3 to put object")
		return pe.NewServiceFailure("error saving blob").WithCause(err)
	}
	return nil
}

// SetContentType copies the object onto itself, the only way S3 allows changing system metadata. User
// metadata has to be carried over explicitly since the copy replaces it.
func (s *S3Store) SetContentType(ctx context.Context, container, name, contentType string) *pe.Err {
	out, pErr := s.head(ctx, container, name)
	if pErr != nil {
		return pErr
	}
	_, err := s.Client.CopyObjectWithContext(ctx, &s3.CopyObjectInput{
		Bucket:            aws.String(container),
		Key:               aws.String(name),
		CopySource:        aws.String(container + "/" + url.PathEscape(name)),
		ContentType:       aws.String(contentType),
		Metadata:          out.Metadata,
		MetadataDirective: aws.String(s3.MetadataDirectiveReplace),
	})
	if err != nil {
		return pe.NewServiceFailure("error updating blob properties").WithCause(err)
	}
	return nil
}

func (s *S3Store) Download(ctx context.Context, container, name string, w io.Writer) (int64, *pe.Err) {
	out, err := s.Client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(container),
		Key:    aws.String(name),
	})
	if err != nil {
		if isS3NotFound(err) {
			return 0, pe.NewNotFound("blob not found").WithCause(err)
		}
		return 0, pe.NewServiceFailure("error retrieving blob").WithCause(err)
	}
	defer out.Body.Close()
	n, err := io.Copy(w, out.Body)
	if err != nil {
		return n, pe.NewServiceFailure("error streaming blob").WithCause(err)
	}
	return n, nil
}

// Delete checks presence first since S3 reports success when deleting absent keys
func (s *S3Store) Delete(ctx context.Context, container, name string) (bool, *pe.Err) {
	ok, pErr := s.Exists(ctx, container, name)
	if pErr != nil || !ok {
		return false, pErr
	}
	_, err := s.Client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(container),
		Key:    aws.String(name),
	})
	if err != nil {
		if isS3NotFound(err) {
			return false, nil
		}
		return false, pe.NewServiceFailure("error removing blob").WithCause(err)
	}
	return true, nil
}

func (s *S3Store) Ping(ctx context.Context) *pe.Err {
	if _, err := s.Client.ListBucketsWithContext(ctx, &s3.ListBucketsInput{}); err != nil {
		return pe.NewDependencyFailure("s3 not reachable").WithCause(err)
	}
	return nil
}

func (s *S3Store) Close() *pe.Err {
	return nil
}
