package client

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/ssbcFund/common"
	"github.com/ssbcFund/contract"
	"github.com/ssbcFund/contract/crowdfunding"
	"github.com/ssbcFund/event"
	"github.com/ssbcFund/levelDB"
	"github.com/ssbcFund/meta"
	"gotest.tools/v3/assert"
	"gotest.tools/v3/poll"
)

const T = int64(1_700_000_000)

type response struct {
	Error     string          `json:"error"`
	ErrorCode string          `json:"error_code"`
	Data      json.RawMessage `json:"data"`
	Code      int             `json:"code"`
}

type testServer struct {
	t      *testing.T
	http   *httptest.Server
	bus    *event.Bus
	clock  *contract.ManualClock
	server *Server
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := levelDB.OpenMem()
	assert.NilError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	clock := contract.NewManualClock(T)
	rec := event.NewRecorder(0)
	bus := event.NewBus(16)
	ledger := contract.NewLedger(db, clock, event.Multi(rec, bus))
	assert.NilError(t, ledger.Genesis(common.FaucetAccountAddress, 1_000_000))

	s := NewServer(ledger, crowdfunding.New(ledger), bus, rec, Options{InitBalance: 1000})
	h := httptest.NewServer(s.Router())
	t.Cleanup(h.Close)
	return &testServer{t: t, http: h, bus: bus, clock: clock, server: s}
}

func (ts *testServer) get(path string) response {
	ts.t.Helper()
	resp, err := http.Get(ts.http.URL + path)
	assert.NilError(ts.t, err)
	return decode(ts.t, resp)
}

func (ts *testServer) post(path string, body interface{}) response {
	ts.t.Helper()
	b, err := json.Marshal(body)
	assert.NilError(ts.t, err)
	resp, err := http.Post(ts.http.URL+path, "application/json", bytes.NewReader(b))
	assert.NilError(ts.t, err)
	return decode(ts.t, resp)
}

func decode(t *testing.T, resp *http.Response) response {
	t.Helper()
	defer resp.Body.Close()
	assert.Equal(t, resp.StatusCode, http.StatusOK)
	var r response
	assert.NilError(t, json.NewDecoder(resp.Body).Decode(&r))
	assert.Equal(t, r.Code, 20000)
	return r
}

func (ts *testServer) register() meta.ChainAccount {
	ts.t.Helper()
	r := ts.get("/registerAccount")
	assert.Equal(ts.t, r.Error, "")
	var acc meta.ChainAccount
	assert.NilError(ts.t, json.Unmarshal(r.Data, &acc))
	return acc
}

func signed(t *testing.T, acc meta.ChainAccount, method string, args interface{}) meta.SignedRequest {
	t.Helper()
	b, err := json.Marshal(args)
	assert.NilError(t, err)
	req, err := contract.SignRequest(meta.SignedRequest{
		From:      acc.AccountAddress,
		PublicKey: acc.PublicKey,
		Method:    method,
		Args:      string(b),
	}, []byte(acc.PrivateKey))
	assert.NilError(t, err)
	return req
}

func TestRegisterAccount(t *testing.T) {
	ts := newTestServer(t)
	acc := ts.register()
	assert.Equal(t, acc.Balance, int64(1000))
	assert.Assert(t, strings.Contains(acc.PrivateKey, "RSA PRIVATE KEY"))

	r := ts.post("/query", meta.Query{Type: "getAccount", Parameters: []string{acc.AccountAddress}})
	assert.Equal(t, r.Error, "")
	var got meta.ChainAccount
	assert.NilError(t, json.Unmarshal(r.Data, &got))
	assert.Equal(t, got.AccountAddress, acc.AccountAddress)
	assert.Equal(t, got.PublicKey, acc.PublicKey)
	assert.Equal(t, got.Balance, acc.Balance)
	assert.Equal(t, got.PrivateKey, "")

	faucet := ts.post("/query", meta.Query{Type: "getAccount", Parameters: []string{common.FaucetAccountAddress}})
	assert.NilError(t, json.Unmarshal(faucet.Data, &got))
	assert.Equal(t, got.Balance, int64(1_000_000-1000))

	r = ts.post("/query", meta.Query{Type: "getAllAccounts"})
	var all []meta.Account
	assert.NilError(t, json.Unmarshal(r.Data, &all))
	assert.Equal(t, len(all), 2)
}

// 私钥只在注册时返回一次，其他人无法通过查询拿到并冒充账户
func TestPrivateKeyNotExposed(t *testing.T) {
	ts := newTestServer(t)
	victim := ts.register()
	mallory := ts.register()

	r := ts.post("/postCampaign", signed(t, mallory, MethodCreateCampaign, meta.CreateCampaignArgs{
		Title: "mine", TargetAmount: 1000, Deadline: T + 10,
	}))
	assert.Equal(t, r.Error, "")
	var campaign meta.Campaign
	assert.NilError(t, json.Unmarshal(r.Data, &campaign))

	r = ts.post("/query", meta.Query{Type: "getAccount", Parameters: []string{victim.AccountAddress}})
	assert.Equal(t, r.Error, "")
	var got meta.ChainAccount
	assert.NilError(t, json.Unmarshal(r.Data, &got))
	assert.Equal(t, got.PrivateKey, "")
	assert.Assert(t, !strings.Contains(string(r.Data), "PRIVATE KEY"))

	r = ts.post("/query", meta.Query{Type: "getAllAccounts"})
	assert.Assert(t, !strings.Contains(string(r.Data), "PRIVATE KEY"))

	// 用查询到的信息加上自己的私钥冒充 victim
	forged := got
	forged.PrivateKey = mallory.PrivateKey
	r = ts.post("/fundCampaign", signed(t, forged, MethodFundCampaign, meta.FundCampaignArgs{
		Campaign: campaign.Address, Amount: 1000,
	}))
	assert.Equal(t, r.ErrorCode, "Unauthenticated")

	r = ts.post("/query", meta.Query{Type: "getAccount", Parameters: []string{victim.AccountAddress}})
	assert.NilError(t, json.Unmarshal(r.Data, &got))
	assert.Equal(t, got.Balance, int64(1000))
}

func TestCampaignLifecycle(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.register()
	carol := ts.register()

	r := ts.post("/postCampaign", signed(t, alice, MethodCreateCampaign, meta.CreateCampaignArgs{
		Title:        "books",
		Description:  "buy books",
		TargetAmount: 1000,
		Deadline:     T + 10,
	}))
	assert.Equal(t, r.Error, "")
	var campaign meta.Campaign
	assert.NilError(t, json.Unmarshal(r.Data, &campaign))
	assert.Equal(t, campaign.Creator, alice.AccountAddress)

	r = ts.post("/fundCampaign", signed(t, carol, MethodFundCampaign, meta.FundCampaignArgs{
		Campaign: campaign.Address,
		Amount:   300,
	}))
	assert.Equal(t, r.Error, "")
	var contribution meta.Contribution
	assert.NilError(t, json.Unmarshal(r.Data, &contribution))

	r = ts.post("/withdrawFunds", signed(t, alice, MethodWithdrawFunds, meta.WithdrawFundsArgs{Campaign: campaign.Address}))
	assert.Equal(t, r.ErrorCode, "WithdrawalNotAllowed")

	ts.clock.Set(T + 11)
	r = ts.post("/query", meta.Query{Type: "getCampaign", Parameters: []string{campaign.Address}})
	assert.Equal(t, r.Error, "")
	var view struct {
		CurrentAmount int64  `json:"current_amount"`
		Status        string `json:"status"`
	}
	assert.NilError(t, json.Unmarshal(r.Data, &view))
	assert.Equal(t, view.CurrentAmount, int64(300))
	assert.Equal(t, view.Status, meta.CampaignStatusRefundable)

	// 只有出资人本人可以退款
	r = ts.post("/refundContribution", signed(t, alice, MethodRefundContribution, meta.RefundContributionArgs{
		Campaign:     campaign.Address,
		Contribution: contribution.Address,
	}))
	assert.Equal(t, r.ErrorCode, "UnauthorizedRefund")

	r = ts.post("/refundContribution", signed(t, carol, MethodRefundContribution, meta.RefundContributionArgs{
		Campaign:     campaign.Address,
		Contribution: contribution.Address,
	}))
	assert.Equal(t, r.Error, "")

	r = ts.post("/query", meta.Query{Type: "getContributions", Parameters: []string{campaign.Address}})
	var contributions []meta.Contribution
	assert.NilError(t, json.Unmarshal(r.Data, &contributions))
	assert.Equal(t, len(contributions), 0)

	r = ts.post("/query", meta.Query{Type: "getEvents"})
	var events []meta.LedgerEvent
	assert.NilError(t, json.Unmarshal(r.Data, &events))
	var types []string
	for _, ev := range events {
		types = append(types, ev.Type)
	}
	assert.DeepEqual(t, types, []string{
		common.EventAccountRegistered,
		common.EventAccountRegistered,
		common.EventCampaignCreated,
		common.EventCampaignFunded,
		common.EventContributionRefunded,
	})
}

func TestSignedRequestRejected(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.register()
	mallory := ts.register()

	args := meta.CreateCampaignArgs{Title: "t", TargetAmount: 1, Deadline: T + 1}

	// 篡改参数后签名失效
	req := signed(t, alice, MethodCreateCampaign, args)
	req.Args = strings.Replace(req.Args, `"t"`, `"x"`, 1)
	r := ts.post("/postCampaign", req)
	assert.Equal(t, r.ErrorCode, "Unauthenticated")

	// 冒用他人地址
	req = signed(t, mallory, MethodCreateCampaign, args)
	req.From = alice.AccountAddress
	r = ts.post("/postCampaign", req)
	assert.Equal(t, r.ErrorCode, "Unauthenticated")

	// 方法名不匹配
	r = ts.post("/fundCampaign", signed(t, alice, MethodCreateCampaign, args))
	assert.Assert(t, r.Error != "")

	r = ts.post("/query", meta.Query{Type: "getAllCampaigns"})
	var all []meta.Campaign
	assert.NilError(t, json.Unmarshal(r.Data, &all))
	assert.Equal(t, len(all), 0)
}

func TestFundErrorCodes(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.register()
	carol := ts.register()

	r := ts.post("/postCampaign", signed(t, alice, MethodCreateCampaign, meta.CreateCampaignArgs{
		Title: "t", TargetAmount: 100, Deadline: T + 10,
	}))
	var campaign meta.Campaign
	assert.NilError(t, json.Unmarshal(r.Data, &campaign))

	r = ts.post("/fundCampaign", signed(t, carol, MethodFundCampaign, meta.FundCampaignArgs{Campaign: campaign.Address, Amount: 5000}))
	assert.Equal(t, r.ErrorCode, "InsufficientBalance")

	r = ts.post("/fundCampaign", signed(t, carol, MethodFundCampaign, meta.FundCampaignArgs{Campaign: campaign.Address, Amount: 0}))
	assert.Equal(t, r.ErrorCode, "InvalidAmount")

	r = ts.post("/fundCampaign", signed(t, carol, MethodFundCampaign, meta.FundCampaignArgs{Campaign: campaign.Address, Amount: 10}))
	assert.Equal(t, r.Error, "")
	r = ts.post("/fundCampaign", signed(t, carol, MethodFundCampaign, meta.FundCampaignArgs{Campaign: campaign.Address, Amount: 10}))
	assert.Equal(t, r.ErrorCode, "DuplicateKey")

	r = ts.post("/postCampaign", signed(t, alice, MethodCreateCampaign, meta.CreateCampaignArgs{
		Title: "late", TargetAmount: 100, Deadline: T,
	}))
	assert.Equal(t, r.ErrorCode, "InvalidDeadline")
}

func TestQueryErrors(t *testing.T) {
	ts := newTestServer(t)

	r := ts.post("/query", meta.Query{Type: "nope"})
	assert.Assert(t, r.Error != "")
	r = ts.post("/query", meta.Query{Type: "getCampaign"})
	assert.Equal(t, r.Error, "参数错误")
	r = ts.post("/query", meta.Query{Type: "getCampaign", Parameters: []string{"missing"}})
	assert.Equal(t, r.ErrorCode, "CampaignNotFound")
	r = ts.post("/query", meta.Query{Type: "getAccount", Parameters: []string{"missing"}})
	assert.Equal(t, r.ErrorCode, "RecordNotFound")
	r = ts.post("/query", meta.Query{Type: "getEvents", Parameters: []string{"-1"}})
	assert.Equal(t, r.Error, "参数错误")
}

func TestCorsPreflight(t *testing.T) {
	ts := newTestServer(t)
	req, err := http.NewRequest(http.MethodOptions, ts.http.URL+"/query", nil)
	assert.NilError(t, err)
	req.Header.Set("Origin", "http://localhost:9528")
	resp, err := http.DefaultClient.Do(req)
	assert.NilError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, resp.StatusCode, http.StatusNoContent)
	assert.Equal(t, resp.Header.Get("Access-Control-Allow-Methods"), "POST, GET, OPTIONS")
}

func TestTlsRedirect(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(TlsHandler("example.com"))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "http://example.com/ping", nil))
	assert.Equal(t, w.Code, http.StatusMovedPermanently)
	assert.Equal(t, w.Header().Get("Location"), "https://example.com/ping")
}

func TestGetLogStreamsEvents(t *testing.T) {
	ts := newTestServer(t)
	url := "ws" + strings.TrimPrefix(ts.http.URL, "http") + "/getLog"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	assert.NilError(t, err)
	defer ws.Close()

	poll.WaitOn(t, func(poll.LogT) poll.Result {
		if ts.bus.Subscribers() == 1 {
			return poll.Success()
		}
		return poll.Continue("waiting for subscriber")
	}, poll.WithTimeout(2*time.Second))

	acc := ts.register()

	assert.NilError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev meta.LedgerEvent
	assert.NilError(t, ws.ReadJSON(&ev))
	assert.Equal(t, ev.Type, common.EventAccountRegistered)
	assert.Equal(t, ev.Data["address"], acc.AccountAddress)

	// 前端断开后取消订阅
	assert.NilError(t, ws.Close())
	poll.WaitOn(t, func(poll.LogT) poll.Result {
		if ts.bus.Subscribers() == 0 {
			return poll.Success()
		}
		return poll.Continue("waiting for unsubscribe")
	}, poll.WithTimeout(2*time.Second))
}
