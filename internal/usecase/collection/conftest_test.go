package collection

import (
	"context"

	"github.com/kailas-cloud/ragcore/internal/domain"
)

type mockRepo struct {
	createFn func(ctx context.Context, col domain.Collection) error
	getFn    func(ctx context.Context, name string) (domain.Collection, error)
	listFn   func(ctx context.Context, ownerID string) ([]domain.Collection, error)
	deleteFn func(ctx context.Context, name string) error
}

func (m *mockRepo) Create(ctx context.Context, col domain.Collection) error {
	if m.createFn != nil {
		return m.createFn(ctx, col)
	}
	return nil
}

func (m *mockRepo) Get(ctx context.Context, name string) (domain.Collection, error) {
	if m.getFn != nil {
		return m.getFn(ctx, name)
	}
	return domain.Collection{}, domain.ErrNotFound
}

func (m *mockRepo) List(ctx context.Context, ownerID string) ([]domain.Collection, error) {
	if m.listFn != nil {
		return m.listFn(ctx, ownerID)
	}
	return nil, nil
}

func (m *mockRepo) Delete(ctx context.Context, name string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, name)
	}
	return nil
}

type mockChunks struct {
	deleteByCollectionFn func(ctx context.Context, collection string) (int, error)
	statsFn              func(ctx context.Context, col domain.Collection) (domain.CollectionStats, error)
}

func (m *mockChunks) DeleteByCollection(ctx context.Context, collection string) (int, error) {
	if m.deleteByCollectionFn != nil {
		return m.deleteByCollectionFn(ctx, collection)
	}
	return 0, nil
}

func (m *mockChunks) Stats(ctx context.Context, col domain.Collection) (domain.CollectionStats, error) {
	if m.statsFn != nil {
		return m.statsFn(ctx, col)
	}
	return domain.CollectionStats{}, nil
}

type mockFiles struct {
	deleteByCollectionFn func(ctx context.Context, collection string) (int, error)
}

func (m *mockFiles) DeleteByCollection(ctx context.Context, collection string) (int, error) {
	if m.deleteByCollectionFn != nil {
		return m.deleteByCollectionFn(ctx, collection)
	}
	return 0, nil
}
