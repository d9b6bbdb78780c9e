package registry

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/ethclient"
)

// providerCache holds one dialed chain client per chain id. Reads vastly
// outnumber writes; connections are safe to share across requests.
type providerCache struct {
	mu      sync.RWMutex
	clients map[uint64]*ethclient.Client
}

func newProviderCache() *providerCache {
	return &providerCache{clients: make(map[uint64]*ethclient.Client)}
}

func (p *providerCache) get(ctx context.Context, chainID uint64, rpcURL string) (*ethclient.Client, error) {
	p.mu.RLock()
	client, ok := p.clients[chainID]
	p.mu.RUnlock()
	if ok {
		return client, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if client, ok := p.clients[chainID]; ok {
		return client, nil
	}

	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}
	p.clients[chainID] = client
	return client, nil
}

func (p *providerCache) close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, client := range p.clients {
		client.Close()
		delete(p.clients, id)
	}
}
