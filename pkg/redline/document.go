package redline

import "github.com/vortex/docx-redline/internal/docpkg"

// Document is an opened .docx package, ready to be compared or
// inspected. The zero value is not usable; construct one with Open.
type Document struct {
	pkg *docpkg.Document
}

// Open parses the raw bytes of a .docx file.
func Open(data []byte) (Document, error) {
	pkg, err := docpkg.Open(data)
	if err != nil {
		return Document{}, NewInvalidPackageError(err, "redline: opening package: %v", err)
	}
	return Document{pkg: pkg}, nil
}

// Bytes serializes the document back into .docx archive bytes.
func (d Document) Bytes() ([]byte, error) {
	if d.pkg == nil {
		return nil, NewInvalidPackageError(nil, "redline: document is not open")
	}
	b, err := d.pkg.Bytes()
	if err != nil {
		return nil, NewInvariantError(err, "redline: serializing package: %v", err)
	}
	return b, nil
}
