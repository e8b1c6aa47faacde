package fetch

import (
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
)

// multipartBody encodes data fields and attachments as multipart/form-data.
// Encoding runs lazily through a pipe: files are opened and read only as the
// transport consumes the body, and any failure surfaces as a body read
// error. Data fields are written first, then attachments, so a receiver
// that keeps the last occurrence of a duplicated name sees the attachment.
func multipartBody(fields []Field, files []Attachment) (io.Reader, string) {
	pr, pw := io.Pipe()
	w := multipart.NewWriter(pw)

	go func() {
		if err := writeParts(w, fields, files); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(w.Close())
	}()

	return pr, w.FormDataContentType()
}

func writeParts(w *multipart.Writer, fields []Field, files []Attachment) error {
	for _, f := range fields {
		if err := w.WriteField(f.Key, f.Value); err != nil {
			return err
		}
	}
	for i, att := range files {
		if err := writeAttachment(w, i, att); err != nil {
			return err
		}
	}
	return nil
}

// writeAttachment appends one attachment as a named part. Unnamed
// attachments follow the positional rule: "file" for the first, "file{i}"
// after that.
func writeAttachment(w *multipart.Writer, index int, att Attachment) error {
	name := att.FieldName
	if name == "" {
		name = "file"
		if index > 0 {
			name = fmt.Sprintf("file%d", index)
		}
	}

	switch {
	case att.Path != "":
		f, err := os.Open(att.Path)
		if err != nil {
			return err
		}
		defer f.Close()
		part, err := createPart(w, name, filepath.Base(att.Path))
		if err != nil {
			return err
		}
		_, err = io.Copy(part, f)
		return err

	case att.Data != nil:
		part, err := createPart(w, name, fmt.Sprintf("bufferfile%d", index))
		if err != nil {
			return err
		}
		_, err = part.Write(att.Data)
		return err

	case att.Reader != nil:
		filename := fmt.Sprintf("streamfile%d", index)
		if f, ok := att.Reader.(*os.File); ok && f.Name() != "" {
			filename = filepath.Base(f.Name())
		}
		part, err := createPart(w, name, filename)
		if err != nil {
			return err
		}
		_, err = io.Copy(part, att.Reader)
		return err
	}

	return fmt.Errorf("fetch: attachment %q has no path, data, or reader", name)
}

// createPart writes a part header whose content-type is looked up from the
// filename extension; unknown extensions get no content-type at all.
func createPart(w *multipart.Writer, field, filename string) (io.Writer, error) {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="%s"; filename="%s"`, escapeQuotes(field), escapeQuotes(filename)))
	if ct := mime.TypeByExtension(filepath.Ext(filename)); ct != "" {
		h.Set("Content-Type", ct)
	}
	return w.CreatePart(h)
}

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
