package s3

import (
	"bytes"
	"context"
	"io"
	"io/ioutil"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
)

// maxDeleteKeys is the S3 limit on keys per DeleteObjects call.
const maxDeleteKeys = 1000

func NewBasicClient(bucket, region string) BasicClient {
	awsConfig := aws.NewConfig()
	if region != "" {
		awsConfig.Region = aws.String(region)
	}
	sess := session.Must(session.NewSessionWithOptions(session.Options{
		Config:            *awsConfig,
		SharedConfigState: session.SharedConfigEnable,
	}))
	api := s3.New(sess)
	return NewBasicClientWithAPI(bucket, api, s3manager.NewUploaderWithClient(api))
}

func NewBasicClientWithAPI(bucket string, api s3iface.S3API, uploader s3manageriface.UploaderAPI) BasicClient {
	return &basicClient{
		bucket:   bucket,
		api:      api,
		uploader: uploader,
	}
}

type basicClient struct {
	bucket   string
	api      s3iface.S3API
	uploader s3manageriface.UploaderAPI
}

func (s *basicClient) Bucket() string {
	return s.bucket
}

func (s *basicClient) List(ctx context.Context, prefix string) ([]string, error) {
	keys := make([]string, 0)
	params := &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	}
	err := s.api.ListObjectsV2PagesWithContext(ctx, params, func(page *s3.ListObjectsV2Output, lastPage bool) bool {
		for _, v := range page.Contents {
			keys = append(keys, aws.StringValue(v.Key))
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

func (s *basicClient) Get(ctx context.Context, key string) ([]byte, error) {
	res, err := s.api.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if awsErr, ok := err.(awserr.Error); ok && awsErr.Code() == s3.ErrCodeNoSuchKey {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}
	defer res.Body.Close()
	return ioutil.ReadAll(res.Body)
}

func (s *basicClient) Put(ctx context.Context, key string, data []byte) error {
	_, err := s.api.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	return err
}

func (s *basicClient) Upload(ctx context.Context, key string, body io.Reader) error {
	_, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   body,
	})
	return err
}

func (s *basicClient) Delete(ctx context.Context, keys ...string) error {
	for len(keys) > 0 {
		n := len(keys)
		if n > maxDeleteKeys {
			n = maxDeleteKeys
		}
		objects := make([]*s3.ObjectIdentifier, 0, n)
		for _, k := range keys[:n] {
			objects = append(objects, &s3.ObjectIdentifier{Key: aws.String(k)})
		}
		out, err := s.api.DeleteObjectsWithContext(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &s3.Delete{Objects: objects, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return err
		}
		if len(out.Errors) > 0 {
			e := out.Errors[0]
			return awserr.New(aws.StringValue(e.Code), aws.StringValue(e.Message)+": "+aws.StringValue(e.Key), nil)
		}
		keys = keys[n:]
	}
	return nil
}
