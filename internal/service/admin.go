package service

import "context"

// Counts returns the row count of every table keyed by table name.
func (s *Service) Counts(ctx context.Context) (map[string]int, error) {
	counters := []struct {
		table string
		count func(context.Context) (int, error)
	}{
		{"users", s.repos.Users.Count},
		{"posts", s.repos.Posts.Count},
		{"comments", s.repos.Comments.Count},
		{"store", s.repos.Products.Count},
		{"user_store", s.repos.Purchases.Count},
	}
	counts := make(map[string]int, len(counters))
	for _, c := range counters {
		n, err := c.count(ctx)
		if err != nil {
			return nil, err
		}
		counts[c.table] = n
	}
	return counts, nil
}
