package record

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/textproto"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"
)

// KindMultipart uploads a file from disk as multipart/form-data.
const KindMultipart = "multipart"

// fallbackContentType is used when the payload bytes do not identify a type.
const fallbackContentType = "text/plain"

// ErrUnsupportedBody is returned for body kinds the generator cannot send.
var ErrUnsupportedBody = errors.New("unsupported body kind")

// Body describes where a request payload comes from.
//
// The set of kinds is open: the scheduler only depends on this interface,
// so new kinds can be added without touching it.
type Body interface {
	// Kind returns the discriminator used in record files.
	Kind() string

	// Load reads the payload source once. The returned Payload is immutable
	// and may be encoded concurrently by any number of dispatches.
	Load(fs afero.Fs) (Payload, error)
}

// Payload is a loaded, immutable request body.
type Payload interface {
	// Encode returns a fresh reader over the wire body and its Content-Type.
	Encode() (io.Reader, string, error)

	// Size is the number of source bytes held by the payload.
	Size() int
}

// DecodeBody builds the Body registered for kind from its raw JSON
// description.
func DecodeBody(kind string, raw []byte) (Body, error) {
	switch kind {
	case KindMultipart:
		var body MultipartBody
		if err := json.Unmarshal(raw, &body); err != nil {
			return nil, fmt.Errorf("invalid %s body: %w", kind, err)
		}
		return &body, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedBody, kind)
	}
}

// MultipartBody uploads the file at Path as the form field Name.
type MultipartBody struct {
	Path string `json:"path" yaml:"path" validate:"required"`
	Name string `json:"name" yaml:"name" validate:"required"`
}

// Kind implements Body.
func (b *MultipartBody) Kind() string {
	return KindMultipart
}

// Filename is the last path segment of the source file.
func (b *MultipartBody) Filename() string {
	return path.Base(strings.ReplaceAll(b.Path, "\\", "/"))
}

// Load implements Body. The whole file is read into memory.
func (b *MultipartBody) Load(fs afero.Fs) (Payload, error) {
	data, err := afero.ReadFile(fs, b.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read body file: %w", err)
	}

	return &multipartPayload{
		field:       b.Name,
		filename:    b.Filename(),
		contentType: DetectContentType(data),
		data:        data,
	}, nil
}

// DetectContentType infers a bare MIME type, without parameters, from the
// leading bytes of data.
func DetectContentType(data []byte) string {
	mtype := mimetype.Detect(data)
	if mtype.Is("application/octet-stream") {
		return fallbackContentType
	}
	mediaType, _, err := mime.ParseMediaType(mtype.String())
	if err != nil {
		return fallbackContentType
	}
	return mediaType
}

type multipartPayload struct {
	field       string
	filename    string
	contentType string
	data        []byte
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func (p *multipartPayload) Encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(p.field), quoteEscaper.Replace(p.filename)))
	header.Set("Content-Type", p.contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(p.data); err != nil {
		return nil, "", err
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}

	return &buf, writer.FormDataContentType(), nil
}

func (p *multipartPayload) Size() int {
	return len(p.data)
}

// ContentType returns the inferred type of the uploaded file.
func (p *multipartPayload) ContentType() string {
	return p.contentType
}
