// Package exporter packages resolved evidence into an integrity-manifested
// zip bundle for external audit or discovery. A failed resolution is itself
// packaged as evidence of failure; the exporter never returns a silently
// empty success.
package exporter

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"quorum/internal/registry/hasher"
	"quorum/internal/registry/models"
	"quorum/internal/registry/ports"
	"quorum/internal/registry/resolver"
	dErrors "quorum/pkg/domain-errors"
	audit "quorum/pkg/platform/audit"
	"quorum/pkg/requestcontext"
)

const (
	manifestName     = "manifest.txt"
	readmeName       = "README.txt"
	verificationName = "verification.json"
	attestationName  = "attestation.pdf"

	// downloadConcurrency caps parallel artifact fetches within one export.
	downloadConcurrency = 4
)

// Zip entries carry a fixed timestamp so identical content yields identical
// archives.
var archiveTimestamp = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

// PointerResolver is the read-only slice of the resolver the exporter needs.
type PointerResolver interface {
	Resolve(ctx context.Context, in resolver.Input) (*models.Resolution, error)
}

// Bundle is a finished export archive. Resolved reports whether the
// underlying resolution found a pointer; a miss still yields a valid archive.
type Bundle struct {
	Filename string
	Data     []byte
	Resolved bool
}

type Service struct {
	resolver       PointerResolver
	objects        ports.ObjectStore
	auditPublisher ports.AuditPublisher
	logger         *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher ports.AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func New(pointerResolver PointerResolver, objects ports.ObjectStore, opts ...Option) (*Service, error) {
	if pointerResolver == nil || objects == nil {
		return nil, fmt.Errorf("exporter requires resolver and object store")
	}

	svc := &Service{resolver: pointerResolver, objects: objects}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// file is one named member of the archive.
type file struct {
	name string
	data []byte
}

// Export resolves the input, fetches every distinct referenced artifact, and
// returns the zip bundle. Any artifact download failure aborts the export;
// a resolution miss does not.
func (s *Service) Export(ctx context.Context, in resolver.Input) (*Bundle, error) {
	res, err := s.resolver.Resolve(ctx, in)
	if err != nil {
		return nil, err
	}

	generatedAt := requestcontext.Now(ctx)

	resolutionJSON, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal resolution: %w", err)
	}

	files := []file{
		{name: verificationName, data: resolutionJSON},
		{name: readmeName, data: []byte(renderReadme(res, generatedAt))},
	}

	if res.OK {
		artifacts, err := s.fetchArtifacts(ctx, res)
		if err != nil {
			return nil, err
		}
		files = append(files, artifacts...)

		attestation, err := renderAttestation(res, generatedAt)
		if err != nil {
			return nil, fmt.Errorf("render attestation: %w", err)
		}
		files = append(files, file{name: attestationName, data: attestation})
	}

	files = append(files, file{name: manifestName, data: buildManifest(files)})

	data, err := writeArchive(files)
	if err != nil {
		return nil, fmt.Errorf("write archive: %w", err)
	}

	bundle := &Bundle{Filename: bundleFilename(res, in), Data: data, Resolved: res.OK}

	ports.LogAudit(ctx, s.logger, s.auditPublisher, audit.Event{
		Action:   string(audit.EventExportGenerated),
		FileHash: res.Hash,
		Outcome:  outcome(res),
	}, "filename", bundle.Filename, "files", len(files))

	return bundle, nil
}

// fetchArtifacts downloads every distinct pointer referenced by the
// resolution. Dedup is by (bucket, path) so the same object is never fetched
// or stored twice under different names. Downloads run in parallel; the
// manifest is computed later, after all complete, over the exact bytes kept.
func (s *Service) fetchArtifacts(ctx context.Context, res *models.Resolution) ([]file, error) {
	type target struct {
		name string
		ptr  models.StoragePointer
	}

	seen := make(map[string]bool)
	var targets []target
	add := func(role string, ptr models.StoragePointer) {
		if ptr.IsZero() || seen[ptr.Key()] {
			return
		}
		seen[ptr.Key()] = true
		targets = append(targets, target{
			name: fmt.Sprintf("artifacts/%s_%s", role, path.Base(ptr.Path)),
			ptr:  ptr,
		})
	}

	if res.Best != nil {
		add(string(res.Best.Kind), res.Best.Pointer)
	}
	if res.Public != nil {
		add("minute_book", *res.Public)
	}
	if res.Verified != nil {
		add("verified_archive", res.Verified.Pointer)
	}

	// Each goroutine writes its own slot, so no lock is needed.
	files := make([]file, len(targets))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(downloadConcurrency)
	for i, t := range targets {
		group.Go(func() error {
			data, err := s.objects.Download(groupCtx, t.ptr)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeUpstream,
					fmt.Sprintf("EXPORT_DOWNLOAD_FAILED: %s", t.ptr.Key()))
			}
			files[i] = file{name: t.name, data: data}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

// buildManifest emits one "hash  filename" line per archive member, sorted
// by filename. The manifest itself is excluded.
func buildManifest(files []file) []byte {
	lines := make([]string, 0, len(files))
	for _, f := range files {
		lines = append(lines, fmt.Sprintf("%s  %s", hasher.Sum(f.data), f.name))
	}
	sort.Slice(lines, func(i, j int) bool {
		// Sort by filename, which follows the two-space separator.
		return lines[i][hasher.HexLength+2:] < lines[j][hasher.HexLength+2:]
	})

	var buf bytes.Buffer
	for _, line := range lines {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

func writeArchive(files []file) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, f := range files {
		header := &zip.FileHeader{
			Name:     f.name,
			Method:   zip.Deflate,
			Modified: archiveTimestamp,
		}
		w, err := zw.CreateHeader(header)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(f.data); err != nil {
			return nil, err
		}
	}

	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// bundleFilename derives the archive name from the strongest identifier
// available: content hash, then ledger id, then whatever input was given.
// A stored hash that is not a canonical digest is skipped rather than sliced.
func bundleFilename(res *models.Resolution, in resolver.Input) string {
	switch {
	case hasher.IsDigest(res.Hash):
		return fmt.Sprintf("governance-export-%s.zip", res.Hash[:16])
	case res.Ledger != nil:
		return fmt.Sprintf("governance-export-%s.zip", res.Ledger.ID)
	case !in.LedgerID.IsNil():
		return fmt.Sprintf("governance-export-%s.zip", in.LedgerID)
	case in.Hash != "":
		return fmt.Sprintf("governance-export-%s.zip", in.Hash)
	default:
		return "governance-export.zip"
	}
}

func outcome(res *models.Resolution) string {
	if res.OK {
		return "resolved"
	}
	return "unresolved"
}

func renderReadme(res *models.Resolution, generatedAt time.Time) string {
	var buf bytes.Buffer
	buf.WriteString("GOVERNANCE EVIDENCE EXPORT\n")
	buf.WriteString("==========================\n\n")
	fmt.Fprintf(&buf, "Generated: %s\n\n", generatedAt.UTC().Format(time.RFC3339))

	if res.OK {
		buf.WriteString("This archive contains the governance artifacts resolved for the\n")
		buf.WriteString("requested record, a PDF attestation summarizing the registry's\n")
		buf.WriteString("signals, the raw resolution payload (verification.json), and a\n")
		buf.WriteString("manifest of SHA-256 hashes covering every file in this archive\n")
		buf.WriteString("except the manifest itself.\n\n")
		buf.WriteString("To verify integrity, recompute the SHA-256 hash of each file and\n")
		buf.WriteString("compare against manifest.txt.\n")
	} else {
		buf.WriteString("No governance artifact could be resolved for the requested\n")
		fmt.Fprintf(&buf, "identifiers (reason: %s).\n\n", res.Reason)
		buf.WriteString("This archive documents that outcome: verification.json holds the\n")
		buf.WriteString("raw resolution payload and manifest.txt covers the files present.\n")
	}
	return buf.String()
}
