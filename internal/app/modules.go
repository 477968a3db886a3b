package app

import (
	"github.com/specialistvlad/chainrun/internal/registry"
	"github.com/specialistvlad/chainrun/modules/clip"
	"github.com/specialistvlad/chainrun/modules/fieldcorrection"
	"github.com/specialistvlad/chainrun/modules/normalise"
	"github.com/specialistvlad/chainrun/modules/scale"
)

// coreModules is the definitive list of all stage modules that are compiled
// into the chainrun binary.
var coreModules = []registry.Module{
	&fieldcorrection.Module{},
	&scale.Module{},
	&clip.Module{},
	&normalise.Module{},
}
