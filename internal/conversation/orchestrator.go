// internal/conversation/orchestrator.go
package conversation

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperrors "meal-assistant/internal/common/errors"
	"meal-assistant/internal/common/logger"
	"meal-assistant/internal/common/metrics"
	"meal-assistant/internal/models"
	"meal-assistant/internal/nutrition"
	"meal-assistant/internal/quantity"
	"meal-assistant/internal/suggest"
)

// Analyzer is the external analysis backend, consumed as a contract only.
type Analyzer interface {
	AnalyzeText(ctx context.Context, description string) (*models.RawMealEstimate, error)
	AnalyzeImage(ctx context.Context, photo []byte, description string) (*models.RawMealEstimate, error)
}

// ProductLookup resolves a barcode to a per-100g packaged-product estimate.
// A miss is (nil, nil), not an error.
type ProductLookup interface {
	LookupByBarcode(ctx context.Context, code string) (*models.RawMealEstimate, error)
}

// Orchestrator owns the per-turn state machine. It is stateless itself: the
// ConversationContext comes in by value and every turn returns a delta, so a
// session layer can replay turns without hidden globals. It never returns an
// error across its boundary; every failure becomes a scripted response.
type Orchestrator struct {
	parser    *quantity.Parser
	corrector *nutrition.Corrector
	suggester *suggest.Generator
	analyzer  Analyzer
	products  ProductLookup
	logger    logger.Logger
}

func NewOrchestrator(parser *quantity.Parser, corrector *nutrition.Corrector, suggester *suggest.Generator, analyzer Analyzer, products ProductLookup, log logger.Logger) *Orchestrator {
	return &Orchestrator{
		parser:    parser,
		corrector: corrector,
		suggester: suggester,
		analyzer:  analyzer,
		products:  products,
		logger:    log.WithFields(map[string]interface{}{"component": "orchestrator"}),
	}
}

// ParseQuantity exposes the quantity parser standalone, no context required.
func (o *Orchestrator) ParseQuantity(text string) models.ParsedQuantity {
	return o.parser.Parse(text)
}

// Scripted user-facing messages. The surrounding application is French-first.
const (
	msgHelp = "Décrivez votre repas (texte, photo ou code-barres) et je calcule les protéines. " +
		"Commandes : « entrée manuelle: <description> | protéines: 20g | calories: 300 » pour saisir " +
		"directement, « aide » pour revoir ce message."
	msgRetryAnalysis = "Désolé, je n'ai pas réussi à analyser ce repas pour le moment. " +
		"Réessayez dans quelques secondes ou décrivez-le autrement."
	msgUnknownKind = "Je n'ai pas compris cette demande. Envoyez une description, une photo " +
		"ou un code-barres."
	msgProductNotFound = "Je ne trouve pas ce produit dans la base. Vous pouvez décrire le repas " +
		"en texte ou utiliser l'entrée manuelle."
	msgNothingToAdjust = "Dites-moi d'abord quel repas vous avez mangé avant d'ajuster la quantité."
	msgManualPrompt    = "D'accord, saisie manuelle. Envoyez « <description> | protéines: 20g | calories: 300 »."
	msgMissingPhoto    = "Je n'ai pas reçu la photo. Vous pouvez la renvoyer ou décrire le repas en texte."
)

// ProcessInput runs one conversation turn. The pipeline is fully sequential
// and awaits at most one external call; serialization of concurrent turns for
// the same session is the caller's job.
func (o *Orchestrator) ProcessInput(ctx context.Context, input string, kind models.InputKind, cctx models.ConversationContext, att models.Attachments) models.ProcessorResponse {
	if !kind.Valid() {
		stdErr := apperrors.NewUnknownInputKindError(string(kind))
		o.logger.Error("unsupported input kind", map[string]interface{}{
			"kind":  string(kind),
			"error": stdErr.Details,
		})
		metrics.TurnsProcessed.WithLabelValues(string(kind), "unknown_kind").Inc()
		return models.ProcessorResponse{
			Message:          msgUnknownKind,
			AwaitingQuantity: cctx.PendingAnalysis != nil,
		}
	}

	text := input
	if kind == models.InputVoice && att.Transcript != "" {
		text = att.Transcript
	}

	switch kind {
	case models.InputPhoto:
		return o.handlePhoto(ctx, text, kind, cctx, att)
	case models.InputScan:
		return o.handleScan(ctx, kind, cctx, att)
	}

	// Structured commands run first on any text-bearing input.
	cmd, err := ParseCommand(text)
	if err != nil {
		return o.validationResponse(kind, cctx, err)
	}
	if cmd != nil {
		return o.handleCommand(cmd, kind, cctx)
	}

	if cctx.State == models.StateAwaitingManualEdit {
		return o.handleManualBody(text, kind, cctx)
	}

	parsed := o.parser.Parse(text)
	if cctx.PendingAnalysis != nil && parsed.HasQuantity() {
		return o.resolveQuantity(*cctx.PendingAnalysis, parsed, text, kind)
	}

	if factor, keyword, ok := modificationFactor(text); ok && cctx.LastQuantityText != "" {
		return o.handleModification(factor, keyword, text, kind, cctx)
	}

	return o.analyzeText(ctx, text, parsed, kind, cctx)
}

// handlePhoto skips command and quantity detection entirely: the estimate is
// normalized to 100g and the turn always ends awaiting a quantity.
func (o *Orchestrator) handlePhoto(ctx context.Context, caption string, kind models.InputKind, cctx models.ConversationContext, att models.Attachments) models.ProcessorResponse {
	if len(att.Photo) == 0 {
		metrics.TurnsProcessed.WithLabelValues(string(kind), "validation_error").Inc()
		return models.ProcessorResponse{
			Message:          msgMissingPhoto,
			AwaitingQuantity: cctx.PendingAnalysis != nil,
			ContextUpdate:    models.ContextDelta{LastAction: kindPtr(kind)},
		}
	}

	start := time.Now()
	estimate, err := o.analyzer.AnalyzeImage(ctx, att.Photo, caption)
	metrics.ExternalCallDuration.WithLabelValues("analyzer").Observe(time.Since(start).Seconds())
	if err != nil || estimate == nil || !estimate.Usable() {
		return o.analysisUnavailable(kind, cctx, err)
	}

	corrected := o.corrector.Correct(*estimate, strings.Join(estimate.DetectedFoods, " "))
	return o.askForQuantity(corrected, kind, nil)
}

// handleScan treats any barcode result as a packaged product already
// expressed per 100g; the corrector never runs on database values.
func (o *Orchestrator) handleScan(ctx context.Context, kind models.InputKind, cctx models.ConversationContext, att models.Attachments) models.ProcessorResponse {
	product := att.Product
	if product == nil && att.Barcode != "" {
		start := time.Now()
		found, err := o.products.LookupByBarcode(ctx, att.Barcode)
		metrics.ExternalCallDuration.WithLabelValues("products").Observe(time.Since(start).Seconds())
		if err != nil {
			metrics.ExternalCallFailures.WithLabelValues("products").Inc()
			return o.analysisUnavailable(kind, cctx, err)
		}
		product = found
	}
	if product == nil {
		metrics.TurnsProcessed.WithLabelValues(string(kind), "product_not_found").Inc()
		return models.ProcessorResponse{
			Message:          msgProductNotFound,
			AwaitingQuantity: cctx.PendingAnalysis != nil,
			ContextUpdate:    models.ContextDelta{LastAction: kindPtr(kind)},
		}
	}

	scanned := *product
	if scanned.SourceHint == "" {
		scanned.SourceHint = "openfoodfacts"
	}
	scanned.EstimatedWeightGrams = 100
	return o.askForQuantity(scanned, kind, strPtr(scanned.PrimaryFood()))
}

func (o *Orchestrator) handleCommand(cmd Command, kind models.InputKind, cctx models.ConversationContext) models.ProcessorResponse {
	switch c := cmd.(type) {
	case HelpCommand:
		metrics.TurnsProcessed.WithLabelValues(string(kind), "command").Inc()
		return models.ProcessorResponse{
			Message:          msgHelp,
			AwaitingQuantity: cctx.PendingAnalysis != nil,
			ContextUpdate:    models.ContextDelta{LastAction: kindPtr(kind)},
		}
	case ManualEntryCommand:
		if c.Description == "" {
			metrics.TurnsProcessed.WithLabelValues(string(kind), "command").Inc()
			return models.ProcessorResponse{
				Message: msgManualPrompt,
				ContextUpdate: models.ContextDelta{
					State:        statePtr(models.StateAwaitingManualEdit),
					ClearPending: true,
					LastAction:   kindPtr(kind),
				},
			}
		}
		return o.finalizeManualEntry(c, kind)
	}
	// Unreachable while the grammar stays closed.
	return models.ProcessorResponse{Message: msgUnknownKind}
}

func (o *Orchestrator) handleManualBody(text string, kind models.InputKind, cctx models.ConversationContext) models.ProcessorResponse {
	cmd, err := ParseManualEntry(text)
	if err != nil {
		return o.validationResponse(kind, cctx, err)
	}
	return o.finalizeManualEntry(cmd, kind)
}

func (o *Orchestrator) finalizeManualEntry(cmd ManualEntryCommand, kind models.InputKind) models.ProcessorResponse {
	final := models.NormalizedNutrition{
		Description:          cmd.Description,
		Confidence:           1.0,
		EstimatedWeightGrams: 100,
	}
	if cmd.ProteinGrams != nil {
		final.Protein = *cmd.ProteinGrams
	}
	if cmd.Calories != nil {
		final.Calories = *cmd.Calories
	}

	o.logger.Info("manual entry recorded", map[string]interface{}{
		"description": cmd.Description,
	})
	metrics.TurnsProcessed.WithLabelValues(string(kind), "resolved").Inc()
	return models.ProcessorResponse{
		Message:    fmt.Sprintf("C'est noté : %s — %.1f g de protéines, %d kcal.", final.Description, final.Protein, final.Calories),
		Normalized: &final,
		ContextUpdate: models.ContextDelta{
			State:        statePtr(models.StateIdle),
			ClearPending: true,
			LastAction:   kindPtr(kind),
		},
	}
}

// resolveQuantity combines a pending, 100g-normalized estimate with a freshly
// parsed quantity. The pending slot always holds a per-100g estimate, so the
// multiplier always applies here.
func (o *Orchestrator) resolveQuantity(pending models.RawMealEstimate, parsed models.ParsedQuantity, text string, kind models.InputKind) models.ProcessorResponse {
	sourceKind := nutrition.Classify(pending, &parsed)
	final := nutrition.Normalize(pending, parsed, true, sourceKind)

	o.logger.Info("quantity resolved", map[string]interface{}{
		"multiplier": parsed.Multiplier,
		"confidence": parsed.Confidence,
		"source":     string(sourceKind),
	})
	metrics.TurnsProcessed.WithLabelValues(string(kind), "resolved").Inc()
	return models.ProcessorResponse{
		Message:    finalMessage(final),
		Normalized: &final,
		ContextUpdate: models.ContextDelta{
			State:            statePtr(models.StateIdle),
			ClearPending:     true,
			LastQuantityText: strPtr(text),
			LastAction:       kindPtr(kind),
		},
	}
}

// handleModification adjusts the previously used multiplier (double, moitié,
// plus, ...). It can only produce a new record while an estimate is still
// pending; once the meal is recorded there is nothing left to rescale.
func (o *Orchestrator) handleModification(factor float64, keyword, text string, kind models.InputKind, cctx models.ConversationContext) models.ProcessorResponse {
	if cctx.PendingAnalysis == nil {
		metrics.TurnsProcessed.WithLabelValues(string(kind), "noop").Inc()
		return models.ProcessorResponse{
			Message:       msgNothingToAdjust,
			ContextUpdate: models.ContextDelta{LastAction: kindPtr(kind)},
		}
	}

	previous := o.parser.Parse(cctx.LastQuantityText)
	adjusted := models.ParsedQuantity{
		Multiplier:   previous.Multiplier * factor,
		Confidence:   previous.Confidence,
		OriginalText: text,
		Components:   previous.Components,
	}
	o.logger.Info("quantity modified", map[string]interface{}{
		"keyword":    keyword,
		"factor":     factor,
		"multiplier": adjusted.Multiplier,
	})
	return o.resolveQuantity(*cctx.PendingAnalysis, adjusted, text, kind)
}

// analyzeText is the full analysis path: strip the quantity expression from
// the text, call the analyzer with the bare description, correct, then either
// terminate directly or park the estimate and ask for a quantity.
func (o *Orchestrator) analyzeText(ctx context.Context, text string, parsed models.ParsedQuantity, kind models.InputKind, cctx models.ConversationContext) models.ProcessorResponse {
	description := text
	if parsed.HasQuantity() {
		description = o.parser.StripQuantity(text)
	}

	start := time.Now()
	estimate, err := o.analyzer.AnalyzeText(ctx, description)
	metrics.ExternalCallDuration.WithLabelValues("analyzer").Observe(time.Since(start).Seconds())
	if err != nil || estimate == nil || !estimate.Usable() {
		return o.analysisUnavailable(kind, cctx, err)
	}

	corrected := o.corrector.Correct(*estimate, description)
	if corrected.EstimatedWeightGrams <= 0 {
		corrected.EstimatedWeightGrams = 100
	}

	if parsed.HasQuantity() {
		shouldScale := nutrition.ShouldScale(description, text)
		if shouldScale {
			corrected = nutrition.NormalizeTo100g(corrected)
		}
		sourceKind := nutrition.Classify(corrected, &parsed)
		final := nutrition.Normalize(corrected, parsed, shouldScale, sourceKind)

		o.logger.Info("meal analyzed with embedded quantity", map[string]interface{}{
			"foods":       corrected.DetectedFoods,
			"multiplier":  parsed.Multiplier,
			"shouldScale": shouldScale,
		})
		metrics.TurnsProcessed.WithLabelValues(string(kind), "resolved").Inc()
		return models.ProcessorResponse{
			Message:    finalMessage(final),
			Normalized: &final,
			ContextUpdate: models.ContextDelta{
				State:            statePtr(models.StateIdle),
				ClearPending:     true,
				LastQuantityText: strPtr(text),
				LastAction:       kindPtr(kind),
			},
		}
	}

	return o.askForQuantity(corrected, kind, nil)
}

// askForQuantity normalizes the estimate to the 100g baseline, parks it as
// the pending analysis and proposes quantity choices.
func (o *Orchestrator) askForQuantity(estimate models.RawMealEstimate, kind models.InputKind, currentProduct *string) models.ProcessorResponse {
	normalized := nutrition.NormalizeTo100g(estimate)
	suggestions := o.suggester.Suggest(normalized)

	o.logger.Info("awaiting quantity", map[string]interface{}{
		"foods":      normalized.DetectedFoods,
		"confidence": normalized.Confidence,
	})
	metrics.TurnsProcessed.WithLabelValues(string(kind), "awaiting_quantity").Inc()
	return models.ProcessorResponse{
		Message: fmt.Sprintf("J'ai reconnu : %s (%.1f g de protéines pour 100 g). Quelle quantité avez-vous mangée ?",
			normalized.PrimaryFood(), normalized.EstimatedProtein),
		AwaitingQuantity: true,
		Suggestions:      suggestions,
		ContextUpdate: models.ContextDelta{
			State:           statePtr(models.StateAwaitingQuantity),
			PendingAnalysis: &normalized,
			CurrentProduct:  currentProduct,
			LastAction:      kindPtr(kind),
		},
	}
}

// analysisUnavailable produces the scripted apology. The state machine stays
// where it was: AwaitingQuantity when an earlier estimate is still pending,
// Idle otherwise. Never an error across the boundary.
func (o *Orchestrator) analysisUnavailable(kind models.InputKind, cctx models.ConversationContext, cause error) models.ProcessorResponse {
	stdErr := apperrors.NewAnalysisUnavailableError(cause)
	if cause != nil {
		metrics.ExternalCallFailures.WithLabelValues("analyzer").Inc()
	}
	o.logger.Warn("analysis unavailable", map[string]interface{}{
		"code":    string(stdErr.Code),
		"details": stdErr.Details,
	})
	metrics.TurnsProcessed.WithLabelValues(string(kind), "analysis_unavailable").Inc()
	return models.ProcessorResponse{
		Message:          msgRetryAnalysis,
		AwaitingQuantity: cctx.PendingAnalysis != nil,
		ContextUpdate:    models.ContextDelta{LastAction: kindPtr(kind)},
	}
}

func (o *Orchestrator) validationResponse(kind models.InputKind, cctx models.ConversationContext, err error) models.ProcessorResponse {
	message := "Commande invalide."
	if stdErr, ok := err.(*apperrors.StandardError); ok {
		message = fmt.Sprintf("Commande invalide : %s", stdErr.Details)
	}
	metrics.TurnsProcessed.WithLabelValues(string(kind), "validation_error").Inc()
	return models.ProcessorResponse{
		Message:          message,
		AwaitingQuantity: cctx.PendingAnalysis != nil,
		ContextUpdate:    models.ContextDelta{LastAction: kindPtr(kind)},
	}
}

func finalMessage(final models.NormalizedNutrition) string {
	return fmt.Sprintf("C'est noté : %s — %.1f g de protéines, %d kcal (≈ %.0f g).",
		final.Description, final.Protein, final.Calories, final.EstimatedWeightGrams)
}

// modificationFactors adjust the previous multiplier. Matching is word-exact
// so "plus" never fires inside "plusieurs".
var modificationFactors = []struct {
	keyword string
	factor  float64
}{
	{"double", 2},
	{"triple", 3},
	{"moitié", 0.5},
	{"moitie", 0.5},
	{"half", 0.5},
	{"quart", 0.25},
	{"quarter", 0.25},
	{"plus", 1.25},
	{"more", 1.25},
	{"moins", 0.75},
	{"less", 0.75},
}

func modificationFactor(text string) (float64, string, bool) {
	for _, word := range strings.Fields(strings.ToLower(text)) {
		for _, m := range modificationFactors {
			if word == m.keyword {
				return m.factor, m.keyword, true
			}
		}
	}
	return 0, "", false
}

func statePtr(s models.ConversationState) *models.ConversationState { return &s }
func strPtr(s string) *string                                       { return &s }
func kindPtr(k models.InputKind) *models.InputKind                  { return &k }
