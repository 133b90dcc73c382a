package s3

import (
	"context"
	"io/ioutil"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

// fakeS3API overrides the SDK calls used by basicClient.
type fakeS3API struct {
	s3iface.S3API
	pages   [][]string
	deleted [][]string
}

func (f *fakeS3API) ListObjectsV2PagesWithContext(ctx aws.Context, in *s3.ListObjectsV2Input, fn func(*s3.ListObjectsV2Output, bool) bool, opts ...request.Option) error {
	for i, p := range f.pages {
		out := &s3.ListObjectsV2Output{}
		for _, k := range p {
			if strings.HasPrefix(k, aws.StringValue(in.Prefix)) {
				out.Contents = append(out.Contents, &s3.Object{Key: aws.String(k)})
			}
		}
		if !fn(out, i == len(f.pages)-1) {
			break
		}
	}
	return nil
}

func (f *fakeS3API) DeleteObjectsWithContext(ctx aws.Context, in *s3.DeleteObjectsInput, opts ...request.Option) (*s3.DeleteObjectsOutput, error) {
	keys := make([]string, 0, len(in.Delete.Objects))
	for _, o := range in.Delete.Objects {
		keys = append(keys, aws.StringValue(o.Key))
	}
	f.deleted = append(f.deleted, keys)
	return &s3.DeleteObjectsOutput{}, nil
}

type fakeUploader struct {
	key  string
	body string
}

func (f *fakeUploader) Upload(in *s3manager.UploadInput, opts ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error) {
	return f.UploadWithContext(context.Background(), in, opts...)
}

func (f *fakeUploader) UploadWithContext(ctx aws.Context, in *s3manager.UploadInput, opts ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error) {
	b, err := ioutil.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.key = aws.StringValue(in.Key)
	f.body = string(b)
	return &s3manager.UploadOutput{}, nil
}

func TestClient_ListAndDeletePrefix(t *testing.T) {
	api := &fakeS3API{pages: [][]string{
		{"raw/forms/forms_1.csv", "raw/forms/forms_2.csv"},
		{"raw/forms/new_forms_records.csv", "raw/other/other_1.csv"},
	}}
	c := NewClientFromBasic(NewBasicClientWithAPI("bkt", api, &fakeUploader{}))
	keys, err := c.List(context.Background(), "raw/forms/")
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 3 {
		t.Fatalf("expected 3 keys across pages; got %v", keys)
	}
	n, err := c.DeletePrefix(context.Background(), "raw/forms/forms_")
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 || len(api.deleted) != 1 || len(api.deleted[0]) != 2 {
		t.Fatalf("expected 2 keys deleted in one batch; got %v %v", n, api.deleted)
	}
}

func TestClient_Delete_Batches(t *testing.T) {
	api := &fakeS3API{}
	c := NewBasicClientWithAPI("bkt", api, &fakeUploader{})
	keys := make([]string, 2500)
	for i := range keys {
		keys[i] = "k"
	}
	if err := c.Delete(context.Background(), keys...); err != nil {
		t.Fatal(err)
	}
	if len(api.deleted) != 3 || len(api.deleted[2]) != 500 {
		t.Fatalf("expected 3 delete batches; got %v", len(api.deleted))
	}
}

func TestClient_Missing(t *testing.T) {
	api := &fakeS3API{pages: [][]string{
		{"raw/forms/forms_1.csv", "raw/forms/forms_3.csv.part_00000"},
	}}
	c := NewClientFromBasic(NewBasicClientWithAPI("bkt", api, &fakeUploader{}))
	missing, err := c.Missing(context.Background(), []string{
		"raw/forms/forms_1.csv",
		"raw/forms/forms_2.csv",
		"raw/forms/forms_3.csv",
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(missing) != 1 || missing[0] != "raw/forms/forms_2.csv" {
		t.Fatalf("expected forms_2 to be missing; got %v", missing)
	}
}

func TestClient_Upload(t *testing.T) {
	u := &fakeUploader{}
	c := NewBasicClientWithAPI("bkt", &fakeS3API{}, u)
	if err := c.Upload(context.Background(), "raw/forms/forms_1.csv", strings.NewReader("id\n1\n")); err != nil {
		t.Fatal(err)
	}
	if u.key != "raw/forms/forms_1.csv" || u.body != "id\n1\n" {
		t.Fatalf("unexpected upload %q %q", u.key, u.body)
	}
}

func TestParseURL(t *testing.T) {
	b, err := ParseURL("s3://my-bucket/raw/", "eu-west-1")
	if err != nil {
		t.Fatal(err)
	}
	if b.Name != "my-bucket" || b.Prefix != "raw" || b.Region != "eu-west-1" {
		t.Fatalf("unexpected bucket %+v", b)
	}
	if _, err = ParseURL("http://my-bucket/raw", ""); err == nil {
		t.Fatal("expected error for non-s3 scheme")
	}
}
