package hal

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"sort"
)

// FileField marks a payload value to be encoded as a multipart file part
// instead of a plain form field.
type FileField struct {
	Filename string
	Content  []byte
}

// encodeForm flattens an arbitrarily nested payload into a flat multipart
// form body. Nested maps extend the field name with a dot ("a.b"); every
// other value, slices included, is appended as a single opaque field.
// The recursion test is deliberately shallow: only map[string]any values
// recurse, matching how form payloads distinguish plain records from
// arrays, dates, and file blobs.
//
// Returns the encoded body and its content type, which carries the
// writer-assigned multipart boundary.
func encodeForm(payload map[string]any) ([]byte, string, error) {
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)
	if err := writeFormFields(writer, "", payload); err != nil {
		return nil, "", err
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart writer: %w", err)
	}
	return buf.Bytes(), writer.FormDataContentType(), nil
}

func writeFormFields(writer *multipart.Writer, prefix string, fields map[string]any) error {
	// Sort keys for deterministic bodies (important for testing).
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		name := key
		if prefix != "" {
			name = prefix + "." + key
		}
		switch value := fields[key].(type) {
		case map[string]any:
			if err := writeFormFields(writer, name, value); err != nil {
				return err
			}
		case FileField:
			if err := writeFormFile(writer, name, value); err != nil {
				return err
			}
		case *FileField:
			if value == nil {
				continue
			}
			if err := writeFormFile(writer, name, *value); err != nil {
				return err
			}
		default:
			if err := writer.WriteField(name, formValue(value)); err != nil {
				return fmt.Errorf("failed to write field %s: %w", name, err)
			}
		}
	}
	return nil
}

func writeFormFile(writer *multipart.Writer, name string, file FileField) error {
	part, err := writer.CreateFormFile(name, file.Filename)
	if err != nil {
		return fmt.Errorf("failed to create form file %s: %w", name, err)
	}
	if _, err := part.Write(file.Content); err != nil {
		return fmt.Errorf("failed to write file content %s: %w", name, err)
	}
	return nil
}

// formValue renders a non-record value as one form field. Same rules as
// query arguments: scalars verbatim, everything else JSON-encoded.
func formValue(v any) string {
	return queryValue(v)
}
