package service

import (
	"errors"
	"io/fs"
)

// isLocked reports a write refused because the file is read-only or held
// open by another program, such as a spreadsheet editor.
func isLocked(err error) bool {
	return errors.Is(err, fs.ErrPermission) || lockViolation(err)
}
