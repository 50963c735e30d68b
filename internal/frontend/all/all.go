// Package all loads every built-in frontend. Import it for its side
// effects:
//
//	import _ "github.com/roach88/flowir/internal/frontend/all"
package all

import (
	_ "github.com/roach88/flowir/internal/frontend/csimple"
	_ "github.com/roach88/flowir/internal/frontend/golang"
	_ "github.com/roach88/flowir/internal/frontend/python"
	_ "github.com/roach88/flowir/internal/frontend/treesitter"
)
