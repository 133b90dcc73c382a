package s3

import (
	"fmt"
	"net/url"
	"strings"
)

type AwsS3Bucket struct {
	Name   string `errorTxt:"bucket name" mandatory:"yes"`
	Prefix string `errorTxt:"bucket prefix"`
	Region string `errorTxt:"bucket region"`
}

// ParseURL expects bucketPrefix to be of the form s3://<bucket>[/<prefix>]
// It returns an AwsS3Bucket populated with the components of bucketPrefix and the supplied region.
// The region may be empty in which case the AWS SDK default chain applies.
func ParseURL(bucketPrefix string, region string) (retval AwsS3Bucket, err error) {
	expectedScheme := "s3"
	s3url, err := url.Parse(bucketPrefix)
	if err != nil {
		return retval, fmt.Errorf("error parsing S3 URL: %v", err)
	}
	if s3url.Scheme != expectedScheme {
		return retval, fmt.Errorf("expected S3 URL scheme %q but got %q", expectedScheme, s3url.Scheme)
	}
	retval.Name = s3url.Host
	if retval.Name == "" {
		return retval, fmt.Errorf("failed to parse bucket name from %q", bucketPrefix)
	}
	retval.Prefix = strings.Trim(s3url.Path, "/")
	retval.Region = region
	return
}
