package commands

import (
	"snow/internal/archive"
	"snow/internal/logger"
)

// ImportKeys copies the SSH host keys contained in the archive src into the keys
// directory and stages them.
func (s *Snow) ImportKeys(src string) error {
	written, err := archive.ImportHostKeys(src, s.settings.KeysDir)
	if err != nil {
		return err
	}
	for _, key := range written {
		logger.Info("Imported %s", key)
	}
	return s.GitAdd(false)
}
