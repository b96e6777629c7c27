package tui

import "strconv"

// nftCount shows how many NFTs belong to a collection.
type nftCount struct {
	svc        Services
	collection string
}

func newNftCount(svc Services, collection string) *nftCount {
	return &nftCount{svc: svc, collection: collection}
}

func (n *nftCount) Init() {
	n.svc.FetchCollectionNfts(n.collection)
}

func (n *nftCount) View() string {
	nfts, ok := n.svc.CollectionNfts(n.collection)
	if !ok {
		return "Loading"
	}
	return strconv.Itoa(len(nfts))
}
