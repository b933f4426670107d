package vault

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"
)

// FileMode is applied to every vault file written.
const FileMode os.FileMode = 0600

// sealedFile is the on-disk layout: nonce ‖ ciphertext ‖ tag.
type sealedFile struct {
	nonce      []byte
	ciphertext []byte
	tag        []byte
}

func (f sealedFile) bytes() []byte {
	raw := make([]byte, 0, len(f.nonce)+len(f.ciphertext)+len(f.tag))
	raw = append(raw, f.nonce...)
	raw = append(raw, f.ciphertext...)
	raw = append(raw, f.tag...)
	return raw
}

func splitFile(raw []byte) (sealedFile, error) {
	if len(raw) < NonceLen+TagLen {
		return sealedFile{}, newError("load", TruncatedFile,
			fmt.Sprintf("%d bytes, need at least %d", len(raw), NonceLen+TagLen))
	}
	return sealedFile{
		nonce:      raw[:NonceLen],
		ciphertext: raw[NonceLen : len(raw)-TagLen],
		tag:        raw[len(raw)-TagLen:],
	}, nil
}

func readFile(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, ioError("load", err, "cannot read vault file")
	}
	return raw, nil
}

// atomicWriteFile writes data next to path and renames it into place, so
// readers see either the old file or the new one. Once the rename succeeds
// the data is in place; later failures are only logged.
func atomicWriteFile(path string, data []byte, perm os.FileMode, log hclog.Logger) error {
	dir := filepath.Dir(path)
	tmpPath := filepath.Join(dir, "."+filepath.Base(path)+"."+uuid.NewString()+".tmp")
	tmpFile, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return errors.Wrap(err, "cannot create temporary file")
	}
	renamed := false
	defer func() {
		if !renamed {
			tmpFile.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return errors.Wrap(err, "cannot write temporary file")
	}
	if err := tmpFile.Sync(); err != nil {
		return errors.Wrap(err, "cannot sync temporary file")
	}
	if err := tmpFile.Close(); err != nil {
		return errors.Wrap(err, "cannot close temporary file")
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return errors.Wrapf(err, "cannot replace %s", path)
	}
	renamed = true

	if err := syncDir(dir); err != nil {
		log.Warn("cannot sync vault directory", "dir", dir, "error", err)
	}
	if err := os.Chmod(path, perm); err != nil {
		log.Warn("cannot set vault file mode", "path", path, "mode", perm, "error", err)
	}
	return nil
}

var syncDir = func(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
