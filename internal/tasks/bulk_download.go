package tasks

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	"github.com/desertthunder/tapedeck/internal/formatter"
	"github.com/desertthunder/tapedeck/internal/models"
)

// BulkDownloadOpts contains configuration for bulk offline downloads.
type BulkDownloadOpts struct {
	NumWorkers   int     // Concurrent workers (default: 3, max: 10)
	RateLimit    float64 // Downloads started per second (default: 2)
	ManifestPath string  // Optional JSON manifest of the results
}

// DownloadResult is the outcome of one track in a bulk download.
type DownloadResult struct {
	TrackID string `json:"track_id"`
	Title   string `json:"title"`
	BlobID  string `json:"blob_id,omitempty"`
	Skipped bool   `json:"skipped"`
	Success bool   `json:"success"`
	Error   error  `json:"-"`
	Message string `json:"error,omitempty"`
}

// BulkDownloadResult summarises a bulk download.
type BulkDownloadResult struct {
	TotalTracks  int              `json:"total_tracks"`
	Downloaded   int              `json:"downloaded"`
	Skipped      int              `json:"skipped"`
	Failed       int              `json:"failed"`
	Results      []DownloadResult `json:"results"`
	ManifestPath string           `json:"-"`
}

type downloadJob struct {
	track models.Track
}

// BulkDownload downloads tracks concurrently with rate limiting and progress tracking.
//
// Tracks that are already offline are skipped. Individual failures are recorded in the result
// and do not stop the batch; cancelling ctx stops queueing new downloads.
func (m *OfflineManager) BulkDownload(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	tracks []models.Track,
	opts BulkDownloadOpts,
) (*BulkDownloadResult, error) {
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 3
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 2.0
	}

	total := len(tracks)
	result := &BulkDownloadResult{
		TotalTracks: total,
		Results:     make([]DownloadResult, 0, total),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	jobs := make(chan downloadJob, total)
	results := make(chan DownloadResult, total)

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go m.downloadWorker(ctx, &wg, jobs, results)
	}

	go func() {
		defer close(jobs)
		sendProgress(prog, queueDownloadsUpdate(total))
		for i, track := range tracks {
			if Downloaded(track) {
				results <- DownloadResult{TrackID: track.ID, Title: track.Title, BlobID: track.OfflineBlobID, Skipped: true, Success: true}
				continue
			}
			if err := limiter.Wait(ctx); err != nil {
				return
			}
			sendProgress(prog, downloadingUpdate(i+1, total, &track))
			jobs <- downloadJob{track: track}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		switch {
		case res.Skipped:
			result.Skipped++
			sendProgress(prog, downloadSkippedUpdate(completed, total, res))
		case res.Success:
			result.Downloaded++
			sendProgress(prog, downloadCompletedUpdate(completed, total, res))
		default:
			result.Failed++
			sendProgress(prog, downloadFailedUpdate(completed, total, res))
		}
	}

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("bulk download interrupted: %w", err)
	}

	if opts.ManifestPath != "" {
		sendProgress(prog, manifestUpdate(opts.ManifestPath))
		if err := formatter.WriteManifest(result, opts.ManifestPath); err != nil {
			return result, fmt.Errorf("downloads completed but failed to write manifest: %w", err)
		}
		result.ManifestPath = opts.ManifestPath
	}
	return result, nil
}

// downloadWorker downloads tracks from the jobs channel.
func (m *OfflineManager) downloadWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan downloadJob,
	results chan<- DownloadResult,
) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		track := job.track
		res := DownloadResult{TrackID: track.ID, Title: track.Title}
		if err := m.Download(ctx, &track); err != nil {
			res.Error = err
			res.Message = err.Error()
		} else {
			res.Success = true
			res.BlobID = track.OfflineBlobID
		}
		results <- res
	}
}
