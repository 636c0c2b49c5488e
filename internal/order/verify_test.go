package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pushorder/internal/capture"
)

func TestVerify(t *testing.T) {
	g := layeredGraph(t,
		rec("index.html", capture.TypeDocument, 500, "index.html"),
		rec("style.css", capture.TypeStylesheet, 200, "index.html"),
		rec("app.js", capture.TypeScript, 300, "index.html", "style.css"),
	)

	require.NoError(t, Verify(g, []string{"index.html", "style.css", "app.js"}))

	tests := []struct {
		name  string
		order []string
		prop  string
	}{
		{"repeat", []string{"index.html", "style.css", "app.js", "app.js"}, PropUniqueness},
		{"missing", []string{"index.html", "style.css"}, PropCompleteness},
		{"unknown", []string{"index.html", "style.css", "app.js", "ghost.js"}, PropCompleteness},
		{"dependency after dependent", []string{"index.html", "app.js", "style.css"}, PropPrecedence},
		{"root not first", []string{"style.css", "index.html", "app.js"}, PropRootFirst},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Verify(g, tt.order)
			require.ErrorIs(t, err, ErrPropertyViolation)

			var pe *PropertyError
			require.ErrorAs(t, err, &pe)
			var props []string
			for _, v := range pe.Violations {
				props = append(props, v.Property)
			}
			assert.Contains(t, props, tt.prop)
		})
	}
}
