package httptransport

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"quorum/internal/platform/metrics"
	"quorum/internal/registry/certifier"
	"quorum/internal/registry/exporter"
	"quorum/internal/registry/models"
	"quorum/internal/registry/resolver"
	id "quorum/pkg/domain"
	dErrors "quorum/pkg/domain-errors"
)

// ResolverService is the resolver surface the transport consumes.
type ResolverService interface {
	Resolve(ctx context.Context, in resolver.Input) (*models.Resolution, error)
}

// CertifierService is the certifier surface the transport consumes.
type CertifierService interface {
	Certify(ctx context.Context, ledgerID id.LedgerID, actorID id.ActorID, force bool) (*certifier.Certification, error)
}

// ExporterService is the exporter surface the transport consumes.
type ExporterService interface {
	Export(ctx context.Context, in resolver.Input) (*exporter.Bundle, error)
}

// Handler is the thin HTTP layer. It validates and decodes requests, applies
// the cross-identifier-type safety net, and delegates to domain services.
type Handler struct {
	resolver      ResolverService
	certifier     CertifierService
	exporter      ExporterService
	metrics       *metrics.Metrics
	logger        *slog.Logger
	verifyBaseURL string
}

func NewHandler(
	resolverSvc ResolverService,
	certifierSvc CertifierService,
	exporterSvc ExporterService,
	m *metrics.Metrics,
	logger *slog.Logger,
	verifyBaseURL string,
) *Handler {
	return &Handler{
		resolver:      resolverSvc,
		certifier:     certifierSvc,
		exporter:      exporterSvc,
		metrics:       m,
		logger:        logger,
		verifyBaseURL: verifyBaseURL,
	}
}

// resolveRequest is shared by resolve and export: the same identifier
// classes select a record for both.
type resolveRequest struct {
	Hash       string `json:"hash"`
	EnvelopeID string `json:"envelope_id"`
	LedgerID   string `json:"ledger_id"`
	EntryID    string `json:"entry_id"`
}

// toInput validates whichever identifier classes were supplied. Explicit
// identifiers take priority over hash inside the resolver.
func (r resolveRequest) toInput() (resolver.Input, error) {
	var in resolver.Input
	var err error

	if r.LedgerID != "" {
		if in.LedgerID, err = id.ParseLedgerID(r.LedgerID); err != nil {
			return in, err
		}
	}
	if r.EntryID != "" {
		if in.EntryID, err = id.ParseEntryID(r.EntryID); err != nil {
			return in, err
		}
	}
	if r.EnvelopeID != "" {
		if in.EnvelopeID, err = id.ParseEnvelopeID(r.EnvelopeID); err != nil {
			return in, err
		}
	}
	if r.Hash != "" {
		if len(r.Hash) != 64 {
			return in, dErrors.New(dErrors.CodeInvalidInput, "hash must be a 64-character SHA-256 hex digest")
		}
		in.Hash = r.Hash
	}
	if in.LedgerID.IsNil() && in.EntryID.IsNil() && in.EnvelopeID.IsNil() && in.Hash == "" {
		return in, dErrors.New(dErrors.CodeInvalidInput, "one of ledger_id, entry_id, envelope_id or hash is required")
	}
	return in, nil
}

type resolveResponse struct {
	OK        bool                     `json:"ok"`
	Hash      string                   `json:"hash,omitempty"`
	BestPDF   *models.ArtifactRef      `json:"best_pdf,omitempty"`
	PublicPDF *models.StoragePointer   `json:"public_pdf,omitempty"`
	Verified  *models.VerifiedRecord   `json:"verified,omitempty"`
	Entity    *models.Entity           `json:"entity,omitempty"`
	Ledger    *models.GovernanceRecord `json:"ledger,omitempty"`
	Error     string                   `json:"error,omitempty"`
}

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := decodeJSON(r, &req); err != nil {
		h.countResolution("error")
		writeError(w, err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		h.countResolution("error")
		writeError(w, err)
		return
	}

	res, err := h.resolveWithSafetyNet(r.Context(), in)
	if err != nil {
		h.countResolution("error")
		writeError(w, err)
		return
	}

	if res.OK {
		h.countResolution("resolved")
	} else {
		h.countResolution("not_found")
	}
	writeJSON(w, http.StatusOK, toResolveResponse(res))
}

// resolveWithSafetyNet retries a missed ledger id as an entry id. Some
// callers hold minute-book entry ids where a ledger id is expected; the
// retry is explicit and logged here rather than guessed inside the resolver.
func (h *Handler) resolveWithSafetyNet(ctx context.Context, in resolver.Input) (*models.Resolution, error) {
	res, err := h.resolver.Resolve(ctx, in)
	if err != nil {
		return nil, err
	}
	if res.OK || res.Reason != resolver.ReasonNotFound || in.LedgerID.IsNil() {
		return res, nil
	}
	if !in.EntryID.IsNil() || !in.EnvelopeID.IsNil() || in.Hash != "" {
		return res, nil
	}

	retry := resolver.Input{EntryID: id.EntryID(in.LedgerID)}
	retried, err := h.resolver.Resolve(ctx, retry)
	if err != nil {
		return nil, err
	}
	if retried.OK && h.logger != nil {
		h.logger.InfoContext(ctx, "ledger id resolved as minute book entry id",
			"identifier", in.LedgerID)
	}
	if retried.OK {
		return retried, nil
	}
	return res, nil
}

func toResolveResponse(res *models.Resolution) resolveResponse {
	out := resolveResponse{
		OK:        res.OK,
		Hash:      res.Hash,
		BestPDF:   res.Best,
		PublicPDF: res.Public,
		Verified:  res.Verified,
		Entity:    res.Entity,
		Ledger:    res.Ledger,
	}
	if !res.OK {
		out.Error = res.Reason
	}
	return out
}

type certifyRequest struct {
	LedgerID string `json:"ledger_id"`
	ActorID  string `json:"actor_id"`
	Force    bool   `json:"force"`
}

type certifyResponse struct {
	OK                 bool   `json:"ok"`
	LedgerID           string `json:"ledger_id"`
	StorageBucket      string `json:"storage_bucket"`
	StoragePath        string `json:"storage_path"`
	FileHash           string `json:"file_hash"`
	VerifyURL          string `json:"verify_url"`
	VerifiedDocumentID string `json:"verified_document_id"`
	Reused             bool   `json:"reused"`
	AnalysisTriggered  bool   `json:"analysis_triggered"`
}

func (h *Handler) handleCertify(w http.ResponseWriter, r *http.Request) {
	var req certifyRequest
	if err := decodeJSON(r, &req); err != nil {
		h.countCertification("error")
		writeError(w, err)
		return
	}

	ledgerID, err := id.ParseLedgerID(req.LedgerID)
	if err != nil {
		h.countCertification("error")
		writeError(w, err)
		return
	}
	var actorID id.ActorID
	if req.ActorID != "" {
		if actorID, err = id.ParseActorID(req.ActorID); err != nil {
			h.countCertification("error")
			writeError(w, err)
			return
		}
	}

	cert, err := h.certifier.Certify(r.Context(), ledgerID, actorID, req.Force)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeConflict) {
			h.countCertification("blocked")
		} else {
			h.countCertification("error")
		}
		writeError(w, err)
		return
	}

	if cert.Reused {
		h.countCertification("reused")
	} else {
		h.countCertification("certified")
	}

	writeJSON(w, http.StatusOK, certifyResponse{
		OK:                 true,
		LedgerID:           cert.LedgerID.String(),
		StorageBucket:      cert.Pointer.Bucket,
		StoragePath:        cert.Pointer.Path,
		FileHash:           cert.FileHash,
		VerifyURL:          fmt.Sprintf("%s/verify/%s", h.verifyBaseURL, cert.FileHash),
		VerifiedDocumentID: cert.VerifiedDocumentID.String(),
		Reused:             cert.Reused,
		AnalysisTriggered:  cert.AnalysisTriggered,
	})
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := decodeJSON(r, &req); err != nil {
		h.countExport("error")
		writeError(w, err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		h.countExport("error")
		writeError(w, err)
		return
	}

	bundle, err := h.exporter.Export(r.Context(), in)
	if err != nil {
		h.countExport("error")
		writeError(w, err)
		return
	}

	if bundle.Resolved {
		h.countExport("resolved")
	} else {
		h.countExport("unresolved")
	}
	if h.metrics != nil {
		h.metrics.ExportBytes.Observe(float64(len(bundle.Data)))
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", bundle.Filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(bundle.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(bundle.Data)
}

func (h *Handler) countResolution(outcome string) {
	if h.metrics != nil {
		h.metrics.Resolutions.WithLabelValues(outcome).Inc()
	}
}

func (h *Handler) countCertification(result string) {
	if h.metrics != nil {
		h.metrics.Certifications.WithLabelValues(result).Inc()
	}
}

func (h *Handler) countExport(outcome string) {
	if h.metrics != nil {
		h.metrics.Exports.WithLabelValues(outcome).Inc()
	}
}

// decodeJSON rejects malformed bodies before any upstream system is touched.
func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInvalidInput, "malformed JSON body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError centralizes domain error translation to HTTP responses so every
// failure carries a code and a human-readable message.
func writeError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	writeJSON(w, dErrors.ToHTTPStatus(code), map[string]any{
		"ok":      false,
		"error":   string(code),
		"message": dErrors.MessageOf(err),
	})
}
