package streaming

import (
	"fmt"
	"strings"
)

// OrderingStrategy controls how sections are delivered relative to
// their DOM position.
//
// Grounded on original_source/crates/edge-executor/src/ordering.rs
// (read in full).
type OrderingStrategy int

const (
	// OrderingStrict streams sections in DOM order, delaying fast
	// sections behind slower ones earlier in the document. This is the
	// zero value, matching the reference's #[default].
	OrderingStrict OrderingStrategy = iota
	// OrderingOutOfOrder streams sections as they complete and injects
	// a reorder script so the browser restores DOM order.
	OrderingOutOfOrder
	// OrderingIndependent streams sections as they complete with no
	// reordering, for sections that don't depend on document position
	// (e.g. islands).
	OrderingIndependent
)

// AllowsOutOfOrder reports whether the strategy permits sections to
// arrive before earlier DOM-order sections.
func (o OrderingStrategy) AllowsOutOfOrder() bool {
	return o != OrderingStrict
}

// NeedsReorderScript reports whether delivered sections must be
// wrapped and accompanied by a browser-side reorder script.
func (o OrderingStrategy) NeedsReorderScript() bool {
	return o == OrderingOutOfOrder
}

// GenerateReorderScript produces the inline <script> that restores
// sectionIDs' DOM order once every wrapped section has arrived.
func GenerateReorderScript(sectionIDs []string) string {
	quoted := make([]string, len(sectionIDs))
	for i, id := range sectionIDs {
		quoted[i] = fmt.Sprintf("%q", id)
	}

	return fmt.Sprintf(`<script>
(function() {
  const order = [%s];
  const container = document.currentScript.parentElement;

  function reorder() {
    const sections = {};
    container.querySelectorAll('[data-section]').forEach(el => {
      sections[el.dataset.section] = el;
    });

    order.forEach(id => {
      if (sections[id]) {
        container.appendChild(sections[id]);
      }
    });
  }

  if (document.readyState === 'loading') {
    document.addEventListener('DOMContentLoaded', reorder);
  } else {
    reorder();
  }
})();
</script>`, strings.Join(quoted, ", "))
}

// WrapSectionForReorder wraps html in a data-section container the
// reorder script can locate by sectionID.
func WrapSectionForReorder(sectionID, html string) string {
	return fmt.Sprintf(`<div data-section="%s">%s</div>`, sectionID, html)
}
