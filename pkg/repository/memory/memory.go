package memory

import (
	"github.com/m-mizutani/jfind/pkg/domain/interfaces"
	"github.com/m-mizutani/jfind/pkg/domain/model"
	"github.com/m-mizutani/jfind/pkg/domain/types"
)

// New creates a new in-memory repository
func New() interfaces.ScanRepository {
	return &scanRepository{
		scans: make(map[types.ScanID]*model.ScanSnapshot),
	}
}
