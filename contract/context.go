package contract

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/ssbcFund/account"
	"github.com/ssbcFund/levelDB"
	"github.com/ssbcFund/meta"
)

// Context 一次调用的上下文，所有读写都落在同一个 levelDB 事务里
type Context struct {
	caller string // 已通过认证的调用者地址
	now    int64  // 调用开始时从时钟读取，整个调用内不变
	tx     *levelDB.Tx
	events []meta.LedgerEvent
}

// 返回调用者地址
func (c *Context) Caller() string {
	return c.caller
}

// 返回账本时间
func (c *Context) Now() int64 {
	return c.now
}

// Transfer 由 from 向 to 转账，失败时返回 *TransferError
func (c *Context) Transfer(from, to string, amount int64) error {
	if err := account.Transfer(c.tx, from, to, amount); err != nil {
		return &TransferError{From: from, To: to, Amount: amount, Err: err}
	}
	return nil
}

// 查询余额
func (c *Context) Balance(address string) (int64, error) {
	return account.GetBalance(c.tx, address)
}

// 为众筹活动开托管账户
func (c *Context) OpenEscrow(address string) error {
	_, err := account.CreateEscrow(c.tx, address)
	if errors.Is(err, account.ErrAccountExists) {
		return fmt.Errorf("%w: %s", ErrDuplicateKey, address)
	}
	return err
}

// 开普通账户
func (c *Context) OpenAccount(address, publicKey string) error {
	_, err := account.CreateAccount(c.tx, address, publicKey, 0)
	if errors.Is(err, account.ErrAccountExists) {
		return fmt.Errorf("%w: %s", ErrDuplicateKey, address)
	}
	return err
}

// CreateRecord key 已存在时返回 ErrDuplicateKey
func (c *Context) CreateRecord(key string, v interface{}) error {
	ok, err := c.tx.Has(key)
	if err != nil {
		return err
	}
	if ok {
		return fmt.Errorf("%w: %s", ErrDuplicateKey, key)
	}
	return c.put(key, v)
}

// ReadRecord key 不存在时返回 ErrRecordNotFound
func (c *Context) ReadRecord(key string, v interface{}) error {
	return readRecord(c.tx, key, v)
}

// UpdateRecord 只能更新已存在的记录
func (c *Context) UpdateRecord(key string, v interface{}) error {
	ok, err := c.tx.Has(key)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrRecordNotFound, key)
	}
	return c.put(key, v)
}

// DeleteRecord 删除记录，返回的凭据交给 beneficiary
func (c *Context) DeleteRecord(key, beneficiary string) (meta.Reclaim, error) {
	data, err := c.tx.Get(key)
	if levelDB.IsNotFound(err) {
		return meta.Reclaim{}, fmt.Errorf("%w: %s", ErrRecordNotFound, key)
	}
	if err != nil {
		return meta.Reclaim{}, err
	}
	if err := c.tx.Delete(key); err != nil {
		return meta.Reclaim{}, err
	}
	return meta.Reclaim{Key: key, Bytes: len(key) + len(data), Beneficiary: beneficiary}, nil
}

// Emit 记录一个事件，事务提交后才会发布
func (c *Context) Emit(typ, campaign string, amount int64, data map[string]interface{}) {
	c.events = append(c.events, meta.LedgerEvent{
		ID:        uuid.NewString(),
		Type:      typ,
		Campaign:  campaign,
		Actor:     c.caller,
		Amount:    amount,
		Timestamp: c.now,
		Data:      data,
	})
}

func (c *Context) put(key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.tx.Put(key, data)
}

func readRecord(r levelDB.Reader, key string, v interface{}) error {
	data, err := r.Get(key)
	if levelDB.IsNotFound(err) {
		return fmt.Errorf("%w: %s", ErrRecordNotFound, key)
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
