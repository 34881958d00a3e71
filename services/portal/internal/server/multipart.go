package server

import (
	"fmt"
	"io"
	"mime/multipart"

	"vietbuild/services/portal/internal/app"
)

type multipartFile struct {
	header *multipart.FileHeader
}

func (m *multipartFile) read() (app.UploadFile, error) {
	f, err := m.header.Open()
	if err != nil {
		return app.UploadFile{}, fmt.Errorf("open %s: %w", m.header.Filename, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return app.UploadFile{}, fmt.Errorf("read %s: %w", m.header.Filename, err)
	}
	return app.UploadFile{
		Name:        m.header.Filename,
		ContentType: m.header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
