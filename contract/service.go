package contract

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/cloudflare/cfssl/log"
	"github.com/ssbcFund/account"
	"github.com/ssbcFund/event"
	"github.com/ssbcFund/levelDB"
	"github.com/ssbcFund/meta"
)

/*
 * 区块链提供给合约的接口
 * 每次调用都是一个原子单元：转账和记录修改要么全部提交，要么全部丢弃
 */

// 提交后发布事件的超时
const publishTimeout = 5 * time.Second

type Ledger struct {
	db        *levelDB.DB
	clock     Clock
	publisher event.Publisher
}

func NewLedger(db *levelDB.DB, clock Clock, publisher event.Publisher) *Ledger {
	if clock == nil {
		clock = SystemClock{}
	}
	if publisher == nil {
		publisher = event.Discard
	}
	return &Ledger{db: db, clock: clock, publisher: publisher}
}

// Now 返回账本时间
func (l *Ledger) Now() int64 {
	return l.clock.Now()
}

// Invoke 以 caller 的身份执行 fn。
// fn 返回错误时事务被丢弃，不会有任何状态变化，也不会发布事件。
// 同一时刻只有一个事务能打开，对同一条记录的并发调用由 levelDB 串行化。
func (l *Ledger) Invoke(ctx context.Context, caller string, fn func(c *Context) error) error {
	if caller == "" {
		return ErrEmptyCaller
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	var events []meta.LedgerEvent
	err := l.db.Update(func(tx *levelDB.Tx) error {
		// 时间在拿到事务后读取，保证串行执行的调用看到的时间单调不减
		c := &Context{caller: caller, now: l.clock.Now(), tx: tx}
		if err := fn(c); err != nil {
			return err
		}
		events = c.events
		return nil
	})
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}
	// 事务已经提交，调用方断开也要把事件发出去
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	for _, ev := range events {
		if err := l.publisher.Publish(pubCtx, ev); err != nil {
			log.Errorf("publish %s event error: %s", ev.Type, err)
		}
	}
	return nil
}

// View 在快照上执行只读查询
func (l *Ledger) View(fn func(v *View) error) error {
	return l.db.View(func(r levelDB.Reader) error {
		return fn(&View{r: r, now: l.clock.Now()})
	})
}

// Genesis 创世账户不存在时创建，持有全部供应量
func (l *Ledger) Genesis(address string, supply int64) error {
	return l.db.Update(func(tx *levelDB.Tx) error {
		if account.ContainsAddress(tx, address) {
			return nil
		}
		_, err := account.CreateAccount(tx, address, "", supply)
		if err == nil {
			log.Infof("genesis account %s created with supply %d", address, supply)
		}
		return err
	})
}

// View 只读上下文
type View struct {
	r   levelDB.Reader
	now int64
}

func (v *View) Now() int64 {
	return v.now
}

func (v *View) ReadRecord(key string, out interface{}) error {
	return readRecord(v.r, key, out)
}

// ScanRecords 按 key 前缀遍历原始记录
func (v *View) ScanRecords(prefix string, each func(raw json.RawMessage) error) error {
	return v.r.Iterate(prefix, func(key string, value []byte) error {
		return each(value)
	})
}

func (v *View) Account(address string) (meta.Account, error) {
	acc, err := account.GetAccount(v.r, address)
	if errors.Is(err, account.ErrAccountNotFound) {
		return meta.Account{}, ErrRecordNotFound
	}
	return acc, err
}

func (v *View) Balance(address string) (int64, error) {
	return account.GetBalance(v.r, address)
}

func (v *View) Accounts() ([]meta.Account, error) {
	return account.GetAllAccounts(v.r)
}

func (v *View) TotalSupply() (int64, error) {
	return account.TotalSupply(v.r)
}
