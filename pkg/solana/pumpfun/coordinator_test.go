package pumpfun

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testProgram = solana.MustPublicKeyFromBase58("ComputeBudget111111111111111111111111111111")

// unsignedTrade builds what the trade API returns for req: a transaction
// with zeroed signature slots that the creator (and mint on create) sign.
func unsignedTrade(t *testing.T, req TradeRequest) []byte {
	t.Helper()
	user := solana.MustPublicKeyFromBase58(req.PublicKey)
	mint := solana.MustPublicKeyFromBase58(req.Mint)

	accounts := []*solana.AccountMeta{{PublicKey: user, IsWritable: true, IsSigner: true}}
	if req.Action == ActionCreate {
		accounts = append(accounts, &solana.AccountMeta{PublicKey: mint, IsWritable: true, IsSigner: true})
	} else {
		accounts = append(accounts, &solana.AccountMeta{PublicKey: mint, IsWritable: false, IsSigner: false})
	}

	tx, err := solana.NewTransaction(
		[]solana.Instruction{solana.NewInstruction(testProgram, accounts, []byte(req.Action))},
		solana.Hash{1},
		solana.TransactionPayer(user),
	)
	require.NoError(t, err)
	tx.Signatures = make([]solana.Signature, tx.Message.Header.NumRequiredSignatures)
	raw, err := tx.MarshalBinary()
	require.NoError(t, err)
	return raw
}

type fakePortal struct {
	mu         sync.Mutex
	uploads    int
	tradeCalls int
	bundleReqs []TradeRequest
	singleReq  *TradeRequest
	uploadForm map[string]string
	failUpload bool
	server     *httptest.Server
}

func newFakePortal(t *testing.T) *fakePortal {
	t.Helper()
	p := &fakePortal{}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/ipfs", func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		p.uploads++
		p.mu.Unlock()
		if p.failUpload {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		require.NoError(t, r.ParseMultipartForm(1<<20))
		p.uploadForm = map[string]string{}
		for k, v := range r.MultipartForm.Value {
			p.uploadForm[k] = v[0]
		}
		_, header, err := r.FormFile("file")
		require.NoError(t, err)
		p.uploadForm["file"] = header.Filename
		w.Write([]byte(`{"metadataUri":"https://ipfs.io/ipfs/QmMeta","metadata":{"name":"Moon","symbol":"MOON"}}`))
	})
	mux.HandleFunc("/api/trade-local", func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		p.tradeCalls++
		p.mu.Unlock()
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		if strings.HasPrefix(string(body), "[") {
			require.NoError(t, json.Unmarshal(body, &p.bundleReqs))
			out := make([]string, len(p.bundleReqs))
			for i, req := range p.bundleReqs {
				out[i] = base58.Encode(unsignedTrade(t, req))
			}
			json.NewEncoder(w).Encode(out)
			return
		}

		var req TradeRequest
		require.NoError(t, json.Unmarshal(body, &req))
		p.singleReq = &req
		w.Write(unsignedTrade(t, req))
	})
	p.server = httptest.NewServer(mux)
	t.Cleanup(p.server.Close)
	return p
}

func (p *fakePortal) client() *Client {
	return NewClient(p.server.URL+"/api/trade-local", p.server.URL+"/api/ipfs")
}

type fakeRelay struct {
	calls [][]string
	err   error
}

func (f *fakeRelay) SendBundle(_ context.Context, txs []string) (string, error) {
	f.calls = append(f.calls, txs)
	return "bundle-1", f.err
}

type fakeSender struct {
	txs []*solana.Transaction
}

func (f *fakeSender) SendTransaction(_ context.Context, tx *solana.Transaction) (solana.Signature, error) {
	f.txs = append(f.txs, tx)
	return tx.Signatures[0], nil
}

func keys(n int) []solana.PrivateKey {
	out := make([]solana.PrivateKey, n)
	for i := range out {
		out[i] = solana.NewWallet().PrivateKey
	}
	return out
}

func moonOptions() LaunchOptions {
	return LaunchOptions{
		Name:        "Moon",
		Symbol:      "MOON",
		Description: "to the moon",
		Twitter:     "https://x.com/moon",
		Image:       []byte{0x89, 'P', 'N', 'G'},
		ImageName:   "moon.png",
	}
}

func decodeSigned(t *testing.T, tx58 string) *solana.Transaction {
	t.Helper()
	raw, err := base58.Decode(tx58)
	require.NoError(t, err)
	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	require.NoError(t, err)
	return tx
}

func TestCreateWithBundle(t *testing.T) {
	portal := newFakePortal(t)
	relay := &fakeRelay{}
	coord := NewCoordinator(portal.client(), relay, &fakeSender{})

	signers := keys(3)
	mint := solana.NewWallet().PrivateKey

	res, err := coord.CreateWithBundle(context.Background(), moonOptions(), signers, mint)
	require.NoError(t, err)

	// trade intents: create first, then one buy per extra signer
	require.Len(t, portal.bundleReqs, 3)
	assert.Equal(t, ActionCreate, portal.bundleReqs[0].Action)
	assert.Equal(t, signers[0].PublicKey().String(), portal.bundleReqs[0].PublicKey)
	assert.Equal(t, "https://ipfs.io/ipfs/QmMeta", portal.bundleReqs[0].TokenMetadata.URI)
	assert.Equal(t, DefaultBundlePriorityFee, portal.bundleReqs[0].PriorityFee)
	for i := 1; i < 3; i++ {
		assert.Equal(t, ActionBuy, portal.bundleReqs[i].Action)
		assert.Equal(t, signers[i].PublicKey().String(), portal.bundleReqs[i].PublicKey)
		assert.Nil(t, portal.bundleReqs[i].TokenMetadata)
		assert.Equal(t, BundleBuyPriorityFee, portal.bundleReqs[i].PriorityFee)
		assert.Equal(t, float64(BundleTokenAmount), portal.bundleReqs[i].Amount)
		assert.Equal(t, "false", portal.bundleReqs[i].DenominatedInSol)
	}

	// one bundle of three signed transactions
	require.Len(t, relay.calls, 1)
	require.Len(t, relay.calls[0], 3)
	create := decodeSigned(t, relay.calls[0][0])
	require.Len(t, create.Signatures, 2)
	assert.NotEqual(t, solana.Signature{}, create.Signatures[0])
	assert.NotEqual(t, solana.Signature{}, create.Signatures[1])
	buy := decodeSigned(t, relay.calls[0][2])
	require.Len(t, buy.Signatures, 1)
	assert.Equal(t, signers[2].PublicKey(), buy.Message.AccountKeys[0])

	require.Len(t, res.Signatures, 3)
	assert.Equal(t, create.Signatures[0], res.Signatures[0])
	assert.Equal(t, "bundle-1", res.BundleID)
	assert.Equal(t, mint.PublicKey(), res.Mint)
	assert.False(t, res.BondingCurve.IsZero())

	assert.Equal(t, "MOON", portal.uploadForm["symbol"])
	assert.Equal(t, "true", portal.uploadForm["showName"])
	assert.Equal(t, "moon.png", portal.uploadForm["file"])
}

func TestCreateWithBundleSignerCount(t *testing.T) {
	for _, n := range []int{0, 6} {
		portal := newFakePortal(t)
		relay := &fakeRelay{}
		coord := NewCoordinator(portal.client(), relay, &fakeSender{})

		_, err := coord.CreateWithBundle(context.Background(), moonOptions(), keys(n), solana.NewWallet().PrivateKey)
		assert.ErrorIs(t, err, ErrSignerCount, "signers=%d", n)
		assert.Zero(t, portal.uploads)
		assert.Zero(t, portal.tradeCalls)
		assert.Empty(t, relay.calls)
	}
}

func TestCreateWithBundleUploadFailure(t *testing.T) {
	portal := newFakePortal(t)
	portal.failUpload = true
	relay := &fakeRelay{}

	_, err := NewCoordinator(portal.client(), relay, &fakeSender{}).
		CreateWithBundle(context.Background(), moonOptions(), keys(2), solana.NewWallet().PrivateKey)
	assert.ErrorIs(t, err, ErrMetadataUpload)
	assert.Zero(t, portal.tradeCalls)
	assert.Empty(t, relay.calls)
}

func TestCreateWithBundleRelayFailure(t *testing.T) {
	portal := newFakePortal(t)
	relay := &fakeRelay{err: errors.New("rate limited")}

	_, err := NewCoordinator(portal.client(), relay, &fakeSender{}).
		CreateWithBundle(context.Background(), moonOptions(), keys(1), solana.NewWallet().PrivateKey)
	assert.ErrorContains(t, err, "rate limited")
}

func TestCreateSingle(t *testing.T) {
	portal := newFakePortal(t)
	sender := &fakeSender{}
	coord := NewCoordinator(portal.client(), &fakeRelay{}, sender)

	signer := solana.NewWallet().PrivateKey
	mint := solana.NewWallet().PrivateKey
	opts := moonOptions()
	opts.DevBuySOL = 0.5

	res, err := coord.CreateSingle(context.Background(), opts, signer, mint)
	require.NoError(t, err)

	require.NotNil(t, portal.singleReq)
	assert.Equal(t, ActionCreate, portal.singleReq.Action)
	assert.Equal(t, "true", portal.singleReq.DenominatedInSol)
	assert.Equal(t, 0.5, portal.singleReq.Amount)
	assert.Equal(t, DefaultSlippagePercent, portal.singleReq.Slippage)
	assert.Equal(t, DefaultPriorityFeeSOL, portal.singleReq.PriorityFee)
	assert.Equal(t, PoolPump, portal.singleReq.Pool)

	require.Len(t, sender.txs, 1)
	require.Len(t, sender.txs[0].Signatures, 2)
	assert.Equal(t, []solana.Signature{sender.txs[0].Signatures[0]}, res.Signatures)
	assert.Empty(t, res.BundleID)
}

func TestBuildBundleRequestsDefaults(t *testing.T) {
	signers := []solana.PublicKey{solana.NewWallet().PublicKey()}
	reqs := BuildBundleRequests(LaunchOptions{Name: "A", Symbol: "B", PriorityFeeSOL: 0.002}, signers, solana.NewWallet().PublicKey(), "uri")
	require.Len(t, reqs, 1)
	assert.Equal(t, 0.002, reqs[0].PriorityFee)
	assert.Equal(t, DefaultSlippagePercent, reqs[0].Slippage)
	assert.Equal(t, float64(BundleTokenAmount), reqs[0].Amount)
}
