package s3

import (
	"context"
	"sort"
	"strings"
)

func NewClient(bucket, region string) Client {
	return NewClientFromBasic(NewBasicClient(bucket, region))
}

func NewClientFromBasic(basicClient BasicClient) Client {
	return &client{
		BasicClient: basicClient,
	}
}

type client struct {
	BasicClient
}

func (s *client) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	keys, err := s.List(ctx, prefix)
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}
	if err = s.Delete(ctx, keys...); err != nil {
		return 0, err
	}
	return len(keys), nil
}

// Missing lists the longest common prefix of keys once and checks each key against the result.
// A key is present if any object starts with it, since some engines append part suffixes to exported files.
func (s *client) Missing(ctx context.Context, keys []string) ([]string, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	existing, err := s.List(ctx, commonPrefix(keys))
	if err != nil {
		return nil, err
	}
	sort.Strings(existing)
	missing := make([]string, 0)
	for _, k := range keys {
		i := sort.SearchStrings(existing, k) // first object >= k
		if i == len(existing) || !strings.HasPrefix(existing[i], k) {
			missing = append(missing, k)
		}
	}
	return missing, nil
}

func commonPrefix(keys []string) string {
	p := keys[0]
	for _, k := range keys[1:] {
		for !strings.HasPrefix(k, p) {
			p = p[:len(p)-1]
		}
	}
	return p
}
