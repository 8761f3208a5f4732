package archive

import "github.com/pkg/errors"

var errArchRequired = errors.New("archive: architecture must not be empty")
