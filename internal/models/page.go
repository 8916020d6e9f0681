package models

import (
	"golang-bank-transaction-service/pkg/errors"
)

// PageRequest selects one slice of a result set. Number is zero-based.
type PageRequest struct {
	Number int `json:"pageNumber"`
	Size   int `json:"pageSize"`
}

// NewPageRequest creates a validated PageRequest
func NewPageRequest(number, size int) (PageRequest, error) {
	page := PageRequest{Number: number, Size: size}
	if err := page.Validate(); err != nil {
		return PageRequest{}, err
	}
	return page, nil
}

// Validate rejects a non-positive size or a negative page number
func (p PageRequest) Validate() error {
	if p.Size <= 0 || p.Number < 0 {
		return errors.InvalidPageRequest(p.Number, p.Size)
	}
	return nil
}

// Offset returns the index of the first row on the page
func (p PageRequest) Offset() int64 {
	return int64(p.Number) * int64(p.Size)
}

// PageResult is one page of query output together with its metadata
type PageResult[T any] struct {
	Contents      []T   `json:"contents"`
	PageNumber    int   `json:"pageNumber"`
	PageSize      int   `json:"pageSize"`
	Offset        int64 `json:"offset"`
	TotalPages    int64 `json:"totalPages"`
	TotalElements int64 `json:"totalElements"`
	ContentsSize  int   `json:"contentsSize"`
}

// AssemblePage builds the page metadata for contents fetched with page out of
// totalElements matching rows. It has no side effects.
func AssemblePage[T any](contents []T, page PageRequest, totalElements int64) (*PageResult[T], error) {
	if page.Size <= 0 {
		return nil, errors.InvalidPageRequest(page.Number, page.Size)
	}
	if contents == nil {
		contents = []T{}
	}

	var totalPages int64
	if totalElements > 0 {
		totalPages = (totalElements-1)/int64(page.Size) + 1
	}

	return &PageResult[T]{
		Contents:      contents,
		PageNumber:    page.Number,
		PageSize:      page.Size,
		Offset:        page.Offset(),
		TotalPages:    totalPages,
		TotalElements: totalElements,
		ContentsSize:  len(contents),
	}, nil
}

// MapPage converts the contents of a page, keeping its metadata
func MapPage[T, U any](page *PageResult[T], fn func(T) U) *PageResult[U] {
	mapped := make([]U, len(page.Contents))
	for i, item := range page.Contents {
		mapped[i] = fn(item)
	}

	return &PageResult[U]{
		Contents:      mapped,
		PageNumber:    page.PageNumber,
		PageSize:      page.PageSize,
		Offset:        page.Offset,
		TotalPages:    page.TotalPages,
		TotalElements: page.TotalElements,
		ContentsSize:  len(mapped),
	}
}
