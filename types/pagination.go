package types

import "github.com/ripplechat/ripple/validator"

const maxPageSize = 100

type Page[T any] struct {
	Items    []T      `json:"items"`
	PageInfo PageInfo `json:"pageInfo"`
}

type PageInfo struct {
	EndCursor   *string `json:"endCursor"`
	HasNextPage bool    `json:"hasNextPage"`
}

type PageArgs struct {
	First *uint
	After *string
}

func (args *PageArgs) Validate() error {
	v := validator.New()

	if args.First != nil && *args.First < 1 {
		v.AddError("First", "First must be greater than 0")
	}
	if args.First != nil && *args.First > maxPageSize {
		v.AddError("First", "First overflow")
	}

	return v.AsError()
}
