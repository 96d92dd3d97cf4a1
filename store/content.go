package store

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MaxPackageSize caps how many files a package may carry.
const MaxPackageSize = 8

var (
	ErrEmptyPackage = errors.New("package has no files")
	ErrPackageFull  = errors.New("package is full")
)

// Kind discriminates the three content variants.
type Kind string

const (
	KindSingle  Kind = "single"
	KindPackage Kind = "package"
	KindPaid    Kind = "paid"
)

// Content is one stored record: a single video, a free package or a
// paid package. Files is always non-empty and holds at most
// MaxPackageSize opaque Telegram file ids, in delivery order.
type Content struct {
	Kind  Kind
	Files []string

	// Paid packages only.
	Price    int
	Card     string
	Currency string
}

// NewSingle builds a single-video record.
func NewSingle(fileID string) Content {
	return Content{Kind: KindSingle, Files: []string{fileID}}
}

// NewPackage builds a free package from files in delivery order.
func NewPackage(files []string) (Content, error) {
	if err := checkFiles(files); err != nil {
		return Content{}, err
	}
	return Content{Kind: KindPackage, Files: append([]string(nil), files...)}, nil
}

// NewPaidPackage builds a paid package. Price is in whole currency
// units, card is the manual payment destination.
func NewPaidPackage(files []string, price int, card, currency string) (Content, error) {
	if err := checkFiles(files); err != nil {
		return Content{}, err
	}
	return Content{
		Kind:     KindPaid,
		Files:    append([]string(nil), files...),
		Price:    price,
		Card:     card,
		Currency: currency,
	}, nil
}

func checkFiles(files []string) error {
	if len(files) == 0 {
		return ErrEmptyPackage
	}
	if len(files) > MaxPackageSize {
		return ErrPackageFull
	}
	return nil
}

// The on-disk format predates this implementation and must stay
// readable by it: a single is stored as a bare file-id string, the two
// package kinds as objects with a "type" tag.
type contentJSON struct {
	Type     string   `json:"type"`
	Files    []string `json:"files"`
	Price    int      `json:"price,omitempty"`
	Card     string   `json:"card,omitempty"`
	Currency string   `json:"currency,omitempty"`
}

func (c Content) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case KindSingle:
		if len(c.Files) != 1 {
			return nil, fmt.Errorf("single record with %d files", len(c.Files))
		}
		return json.Marshal(c.Files[0])
	case KindPackage:
		return json.Marshal(contentJSON{Type: "package", Files: c.Files})
	case KindPaid:
		return json.Marshal(contentJSON{
			Type:     "paid",
			Files:    c.Files,
			Price:    c.Price,
			Card:     c.Card,
			Currency: c.Currency,
		})
	}
	return nil, fmt.Errorf("unknown content kind %q", c.Kind)
}

func (c *Content) UnmarshalJSON(data []byte) error {
	// Legacy shorthand: a bare string is a single video.
	var fileID string
	if err := json.Unmarshal(data, &fileID); err == nil {
		*c = NewSingle(fileID)
		return nil
	}

	var raw contentJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw.Type {
	case "package":
		*c = Content{Kind: KindPackage, Files: raw.Files}
	case "paid":
		*c = Content{
			Kind:     KindPaid,
			Files:    raw.Files,
			Price:    raw.Price,
			Card:     raw.Card,
			Currency: raw.Currency,
		}
	default:
		return fmt.Errorf("unknown content type %q", raw.Type)
	}
	// Hand-edited stores must not smuggle in records the constructors
	// would reject.
	return checkFiles(raw.Files)
}
