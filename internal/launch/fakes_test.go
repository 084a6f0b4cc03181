package launch

import (
	"context"
	"errors"
	"sync"

	"tokenlaunch/pkg/config"
	tlsolana "tokenlaunch/pkg/solana"
	"tokenlaunch/pkg/solana/pumpfun"

	"github.com/gagliardetto/solana-go"
)

type fakeConn struct {
	mu sync.Mutex

	balance     uint64
	balanceErr  error
	balanceHook func()

	sendErrs     []error
	sent         []*solana.Transaction
	confirmation *tlsolana.Confirmation
	confirmErr   error
	confirmHook  func()
	confirmed    []solana.Signature
	sendCtxErrs  []error
	states       map[solana.Signature]tlsolana.SignatureState
}

func newFakeConn() *fakeConn {
	return &fakeConn{balance: 5 * solana.LAMPORTS_PER_SOL, confirmation: &tlsolana.Confirmation{Slot: 1}}
}

func (f *fakeConn) GetMinimumBalanceForRentExemption(_ context.Context, dataLen uint64) (uint64, error) {
	return 1_000_000 + dataLen, nil
}

func (f *fakeConn) GetLatestBlockhash(context.Context) (solana.Hash, error) {
	return solana.Hash{9}, nil
}

func (f *fakeConn) GetBalance(context.Context, solana.PublicKey) (uint64, error) {
	if f.balanceHook != nil {
		f.balanceHook()
	}
	return f.balance, f.balanceErr
}

func (f *fakeConn) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, tx)
	f.sendCtxErrs = append(f.sendCtxErrs, ctx.Err())
	if len(f.sendErrs) >= len(f.sent) && f.sendErrs[len(f.sent)-1] != nil {
		return solana.Signature{}, f.sendErrs[len(f.sent)-1]
	}
	return tx.Signatures[0], nil
}

func (f *fakeConn) ConfirmTransaction(_ context.Context, sig solana.Signature) (*tlsolana.Confirmation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirmed = append(f.confirmed, sig)
	if f.confirmHook != nil {
		f.confirmHook()
	}
	return f.confirmation, f.confirmErr
}

func (f *fakeConn) GetSignatureStates(_ context.Context, sigs []solana.Signature) ([]tlsolana.SignatureState, error) {
	states := make([]tlsolana.SignatureState, len(sigs))
	for i, sig := range sigs {
		states[i] = f.states[sig]
	}
	return states, nil
}

type fakeUploader struct {
	logoURI     string
	metadataURI string
	logoErr     error
	metadataErr error
	uploads     []string
	documents   [][]byte
}

func (f *fakeUploader) Upload(_ context.Context, name, _ string, data []byte) (string, error) {
	f.uploads = append(f.uploads, name)
	if name == "metadata.json" {
		f.documents = append(f.documents, data)
		return f.metadataURI, f.metadataErr
	}
	return f.logoURI, f.logoErr
}

// rejectingWallet behaves like an interactive wallet whose holder
// declines every request.
type rejectingWallet struct {
	key solana.PrivateKey
}

func (w rejectingWallet) PublicKey() solana.PublicKey { return w.key.PublicKey() }

func (w rejectingWallet) SignTransaction(context.Context, *solana.Transaction, ...solana.PrivateKey) error {
	return errors.New("WalletSignTransactionError: User rejected the request.")
}

type fakeBondingCurve struct {
	err           error
	bundleCalls   int
	singleCalls   int
	lastOpts      pumpfun.LaunchOptions
	lastSigners   []solana.PrivateKey
	lastMint      solana.PublicKey
	bundleID      string
	signatureSeed byte
}

func (f *fakeBondingCurve) result(mint solana.PrivateKey, n int) *pumpfun.LaunchResult {
	sigs := make([]solana.Signature, n)
	for i := range sigs {
		sigs[i] = solana.Signature{f.signatureSeed, byte(i + 1)}
	}
	curve, _, _ := tlsolana.GetBondingCurvePDA(mint.PublicKey())
	return &pumpfun.LaunchResult{
		Mint:         mint.PublicKey(),
		BondingCurve: curve,
		MetadataURI:  "https://ipfs.io/ipfs/QmPump",
		Signatures:   sigs,
		BundleID:     f.bundleID,
	}
}

func (f *fakeBondingCurve) CreateWithBundle(_ context.Context, opts pumpfun.LaunchOptions, signers []solana.PrivateKey, mint solana.PrivateKey) (*pumpfun.LaunchResult, error) {
	f.bundleCalls++
	f.lastOpts, f.lastSigners, f.lastMint = opts, signers, mint.PublicKey()
	if f.err != nil {
		return nil, f.err
	}
	return f.result(mint, len(signers)), nil
}

func (f *fakeBondingCurve) CreateSingle(_ context.Context, opts pumpfun.LaunchOptions, signer, mint solana.PrivateKey) (*pumpfun.LaunchResult, error) {
	f.singleCalls++
	f.lastOpts, f.lastSigners, f.lastMint = opts, []solana.PrivateKey{signer}, mint.PublicKey()
	if f.err != nil {
		return nil, f.err
	}
	return f.result(mint, 1), nil
}

type fakeSigners struct {
	keys map[string]solana.PrivateKey
}

func (f *fakeSigners) ResolveSigners(_ context.Context, addresses []string) ([]solana.PrivateKey, error) {
	out := make([]solana.PrivateKey, 0, len(addresses))
	for _, addr := range addresses {
		key, ok := f.keys[addr]
		if !ok {
			return nil, errors.New("unknown signer " + addr)
		}
		out = append(out, key)
	}
	return out, nil
}

type fakeStore struct {
	saved   []*Result
	saveErr error
}

func (f *fakeStore) Save(ctx context.Context, r *Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, r)
	return nil
}

type fakePublisher struct {
	queues   []string
	messages []interface{}
}

func (f *fakePublisher) Publish(queue string, msg interface{}) error {
	f.queues = append(f.queues, queue)
	f.messages = append(f.messages, msg)
	return nil
}

func newTestLauncher(conn *fakeConn, wallet tlsolana.Wallet, uploader *fakeUploader) (*Launcher, *fakeStore, *fakePublisher) {
	store := &fakeStore{}
	events := &fakePublisher{}
	l := NewLauncher(Deps{
		Network:  config.NetworkDevnet,
		Conn:     conn,
		Wallet:   wallet,
		Uploader: uploader,
		Store:    store,
		Events:   events,
	})
	return l, store, events
}

func mustKey() solana.PrivateKey {
	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		panic(err)
	}
	return key
}

func testLogo() *Logo {
	return &Logo{FileName: "cosmic.png", ContentType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}}
}

func cosmicIntent() *DirectMintIntent {
	return &DirectMintIntent{TokenDetails: TokenDetails{
		Name:        "Cosmic Coin",
		Symbol:      "CSMC",
		Description: "A token for the stars",
		Links:       SocialLinks{Website: "https://cosmic.example", Twitter: "@cosmic"},
		Decimals:    9,
		Supply:      1_000_000_000,
		Logo:        testLogo(),
		Capabilities: Capabilities{
			Freezeable: false,
			Mintable:   true,
			Updateable: true,
		},
	}}
}

// instructionData returns the raw data of every instruction in tx.
func instructionData(tx *solana.Transaction) [][]byte {
	out := make([][]byte, len(tx.Message.Instructions))
	for i, ix := range tx.Message.Instructions {
		out[i] = ix.Data
	}
	return out
}
