package marketplace_api_client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"propertify-view-service/internal/constants"
	"propertify-view-service/internal/contracts"
	"propertify-view-service/internal/contextkeys"
	"propertify-view-service/internal/core/domain"
	"propertify-view-service/internal/core/port"
)

// FetcherFactory строит FetchFunc для ресурсов из каталога и приводит
// их ответы к каноническому виду {data, pagination}.
type FetcherFactory struct {
	client *Client
}

func NewFetcherFactory(client *Client) *FetcherFactory {
	return &FetcherFactory{client: client}
}

func (f *FetcherFactory) FetcherFor(resource string, tokens port.TokenSource) (port.FetchFunc, error) {
	res, ok := constants.LookupResource(resource)
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownResource, resource)
	}

	return func(ctx context.Context, req domain.PageRequest) (*domain.PageResponse, error) {
		if err := req.Validate(); err != nil {
			return nil, err
		}
		resp, err := f.client.Request(ctx, http.MethodGet, res.Path, RequestOptions{
			Params: req.Query(),
			Token:  tokenOf(tokens),
		})
		if err != nil {
			return nil, err
		}

		page, err := decodePage(res.Envelope, resp.Data, req)
		if err != nil {
			contextkeys.LoggerFromContext(ctx).Error("Failed to decode page", err, port.Fields{
				"component": "FetcherFactory",
				"resource":  res.Name,
				"envelope":  res.Envelope,
			})
			return nil, fmt.Errorf("resource %s: %w", res.Name, err)
		}
		return page, nil
	}, nil
}

func decodePage(kind constants.EnvelopeKind, raw json.RawMessage, req domain.PageRequest) (*domain.PageResponse, error) {
	switch kind {
	case constants.EnvelopeCanonical:
		return decodeCanonical(raw)
	case constants.EnvelopeFlat:
		return decodeFlat(raw, req)
	case constants.EnvelopeArray:
		return decodeArray(raw, req)
	default:
		return nil, fmt.Errorf("unknown envelope %q", kind)
	}
}

func decodeCanonical(raw json.RawMessage) (*domain.PageResponse, error) {
	if err := contracts.Validate(contracts.PageResponseV1, raw); err != nil {
		return nil, err
	}
	var page domain.PageResponse
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, fmt.Errorf("failed to decode page: %w", err)
	}
	if page.Data == nil {
		page.Data = []domain.Record{}
	}
	return &page, nil
}

func decodeFlat(raw json.RawMessage, req domain.PageRequest) (*domain.PageResponse, error) {
	var dto flatPageResponse
	if err := json.Unmarshal(raw, &dto); err != nil {
		return nil, fmt.Errorf("failed to decode flat page: %w", err)
	}

	items := dto.Data
	if items == nil {
		items = dto.Objects
	}
	if items == nil {
		items = []domain.Record{}
	}

	p := domain.Pagination{Total: dto.Total, Page: dto.Page, Limit: dto.PerPage}
	if p.Limit < 1 {
		p.Limit = dto.Limit
	}
	if p.Limit < 1 {
		p.Limit = req.Limit
	}
	if p.Page < 1 {
		p.Page = req.Page
	}
	if p.Total < len(items) {
		p.Total = (p.Page-1)*p.Limit + len(items)
	}
	return &domain.PageResponse{Data: items, Pagination: p}, nil
}

// decodeArray режет полный список на страницы локально.
func decodeArray(raw json.RawMessage, req domain.PageRequest) (*domain.PageResponse, error) {
	var all []domain.Record
	if err := json.Unmarshal(raw, &all); err != nil {
		return nil, fmt.Errorf("failed to decode list: %w", err)
	}

	start := (req.Page - 1) * req.Limit
	if start > len(all) {
		start = len(all)
	}
	end := start + req.Limit
	if end > len(all) {
		end = len(all)
	}

	data := make([]domain.Record, end-start)
	copy(data, all[start:end])
	return &domain.PageResponse{
		Data:       data,
		Pagination: domain.Pagination{Total: len(all), Page: req.Page, Limit: req.Limit},
	}, nil
}
