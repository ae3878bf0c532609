package extract

import (
	"log/slog"

	"crossref/internal/engine/ast"
	"crossref/internal/engine/model"
)

// IndexHTMLUnit records the script references of an HTML file and indexes its
// inline scripts as units enclosed by the HTML element.
func (x *Extractor) IndexHTMLUnit(unit *ast.HTMLUnit) {
	if unit == nil || unit.Element == nil || x.recorder == nil {
		return
	}
	x.reset()
	x.unitElement = unit.Element
	x.enter(unit.Element)
	defer x.exit()

	for _, script := range unit.Scripts {
		if script == nil {
			continue
		}
		if script.Source != nil {
			x.record(definingUnitOf(script.Library), model.IsReferencedBy, x.locationAt(script.Source.Off, script.Source.Len))
		}
		if script.Unit != nil {
			x.visitInlineScript(unit.Element, script.Unit)
		}
	}
	slog.Debug("extracted relationships", "html", unit.Element.Key().String(), "facts", x.recorded)
}

func (x *Extractor) visitInlineScript(html *model.Element, unit *ast.CompilationUnit) {
	if unit.Element != nil {
		x.visitUnit(unit)
	} else {
		x.library = nil
		x.imports = nil
		for _, d := range unit.Declarations {
			x.visitDeclaration(d)
		}
	}
	x.unitElement = html
	x.library = nil
	x.imports = nil
}
