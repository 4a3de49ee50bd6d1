package shaders

import (
	_ "embed"
)

//go:embed cursor.wgsl
var CursorWGSL string

//go:embed scene.wgsl
var SceneWGSL string
