package shared

import "context"

// DownloadFunc downloads a remote file into the provided destination.
type DownloadFunc func(ctx context.Context, url, path string) (int64, error)
