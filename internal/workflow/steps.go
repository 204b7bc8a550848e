package workflow

import (
	"context"
	"strings"

	"github.com/MeKo-Tech/cardflow/internal/config"
)

// Step names, in declared execution order.
const (
	StepRotateImages    = "rotate_images"
	StepLogin           = "login"
	StepNavigateBatches = "navigate_batches"
	StepClickCreate     = "click_create_batch"
	StepGeneralSettings = "fill_general_settings"
	StepContinueGeneral = "continue_general_settings"
	StepOptionalDetails = "fill_optional_details"
	StepCreateBatch     = "create_batch"
	StepExtractBatchID  = "extract_batch_id"
	StepMagicScan       = "click_magic_scan"
	StepSelectSides     = "select_sides"
	StepUploadImages    = "upload_images"
	StepContinueUpload  = "continue_upload"
	StepInspectorView   = "inspector_view"
)

// URL fragments that mark the page transitions between steps.
const (
	fragGeneralSettings = "general-settings"
	fragOptionalDetails = "optional-details"
	fragBatchCreated    = "/batches/"
	fragSides           = "/sides"
	fragUpload          = "/upload"
)

// Step is one named unit of orchestrated work. SkipOnReuse marks steps
// that are omitted when a job borrows an already-authenticated session.
type Step struct {
	Name        string
	SkipOnReuse bool
	Run         func(ctx context.Context, job *BatchJob) error
}

// steps returns the declared step list. Order is fixed; the run loop
// never reorders or re-runs entries.
func (o *Orchestrator) steps() []Step {
	return []Step{
		{Name: StepRotateImages, Run: o.rotateImages},
		{Name: StepLogin, SkipOnReuse: true, Run: o.login},
		{Name: StepNavigateBatches, Run: o.navigateBatches},
		{Name: StepClickCreate, Run: o.clickCreateBatch},
		{Name: StepGeneralSettings, Run: o.fillGeneralSettings},
		{Name: StepContinueGeneral, Run: o.continueGeneralSettings},
		{Name: StepOptionalDetails, Run: o.fillOptionalDetails},
		{Name: StepCreateBatch, Run: o.createBatch},
		{Name: StepExtractBatchID, Run: o.extractBatchID},
		{Name: StepMagicScan, Run: o.clickMagicScan},
		{Name: StepSelectSides, Run: o.selectSides},
		{Name: StepUploadImages, Run: o.uploadImages},
		{Name: StepContinueUpload, Run: o.continueUpload},
		{Name: StepInspectorView, Run: o.inspectorView},
	}
}

// FieldKind tags how an optional-details field is driven. Resolved from
// the selector configuration before any interaction, so fill behavior
// is order-stable instead of exception-driven.
type FieldKind int

const (
	FieldText FieldKind = iota
	FieldSelect
	FieldCustomSelect
	FieldClick
)

func (k FieldKind) String() string {
	switch k {
	case FieldSelect:
		return "select"
	case FieldCustomSelect:
		return "custom-select"
	case FieldClick:
		return "click"
	default:
		return "text"
	}
}

// fieldKindFor resolves the interaction strategy for one optional
// field. A "custom" variant wins, then an explicit "select" variant,
// then an empty value means the control is just clicked, and anything
// else is treated as a text input.
func fieldKindFor(sel config.Selector, value string) FieldKind {
	switch {
	case sel.Custom():
		return FieldCustomSelect
	case strings.EqualFold(sel.Variant, "select"):
		return FieldSelect
	case value == "":
		return FieldClick
	default:
		return FieldText
	}
}
