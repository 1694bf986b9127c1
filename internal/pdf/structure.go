package pdf

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// InspectStructure parses the cross-reference structure with pdfcpu in relaxed
// mode and returns the authoritative page count. A document pdfcpu cannot read
// is rejected; relaxed validation failures are only recorded.
func InspectStructure(data []byte) (*Structure, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}

	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to ensure page count: %w", err)
	}

	structure := &Structure{
		PageCount: ctx.PageCount,
		Encrypted: ctx.Encrypt != nil,
	}
	if ctx.HeaderVersion != nil {
		structure.Version = ctx.HeaderVersion.String()
	}

	if err := api.ValidateContext(ctx); err != nil {
		structure.ValidationIssue = err.Error()
	}

	return structure, nil
}
