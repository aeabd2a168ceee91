package account

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/cloudflare/cfssl/log"
	"github.com/ssbcFund/common"
	"github.com/ssbcFund/levelDB"
	"github.com/ssbcFund/meta"
)

/* 这里封装了所有的对账户的操作
 * 账户存放在 levelDB 中，key: AccountPrefix+地址
 * 读写都通过传入的 levelDB.Reader / ReadWriter 完成，调用方决定是否处于事务中
 */

var (
	ErrAccountExists       = errors.New("account already exists")
	ErrAccountNotFound     = errors.New("account not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidAmount       = errors.New("transfer amount must be positive")
	ErrBalanceOverflow     = errors.New("balance overflow")
)

func accountKey(address string) string {
	return common.AccountPrefix + address
}

// 创建普通账户
func CreateAccount(kv levelDB.ReadWriter, address, publicKey string, balance int64) (meta.Account, error) {
	return create(kv, meta.Account{
		Address:   address,
		Balance:   balance,
		PublicKey: publicKey,
	})
}

// 创建托管账户（众筹活动持有的资金）
func CreateEscrow(kv levelDB.ReadWriter, address string) (meta.Account, error) {
	return create(kv, meta.Account{
		Address:  address,
		IsEscrow: true,
	})
}

func create(kv levelDB.ReadWriter, acc meta.Account) (meta.Account, error) {
	ok, err := kv.Has(accountKey(acc.Address))
	if err != nil {
		return meta.Account{}, err
	}
	if ok {
		return meta.Account{}, fmt.Errorf("%w: %s", ErrAccountExists, acc.Address)
	}
	if err := put(kv, acc); err != nil {
		return meta.Account{}, err
	}
	return acc, nil
}

// 获取账户信息
func GetAccount(kv levelDB.Reader, address string) (meta.Account, error) {
	data, err := kv.Get(accountKey(address))
	if levelDB.IsNotFound(err) {
		return meta.Account{}, fmt.Errorf("%w: %s", ErrAccountNotFound, address)
	}
	if err != nil {
		return meta.Account{}, err
	}
	var acc meta.Account
	if err := json.Unmarshal(data, &acc); err != nil {
		return meta.Account{}, err
	}
	return acc, nil
}

// 账户地址是否存在
func ContainsAddress(kv levelDB.Reader, address string) bool {
	ok, err := kv.Has(accountKey(address))
	if err != nil {
		log.Errorf("[ContainsAddress] %s", err)
		return false
	}
	return ok
}

// 获取余额，不存在的账户余额为 0
func GetBalance(kv levelDB.Reader, address string) (int64, error) {
	acc, err := GetAccount(kv, address)
	if errors.Is(err, ErrAccountNotFound) {
		return 0, nil
	}
	return acc.Balance, err
}

// 判断交易发起方是否有足够余额
func CanTransfer(kv levelDB.Reader, sender string, amount int64) bool {
	balance, err := GetBalance(kv, sender)
	if err != nil || balance < amount {
		log.Infof("[CanTransfer]: Insufficient balance.")
		return false
	}
	return true
}

func SubBalance(kv levelDB.ReadWriter, sender string, amount int64) (meta.Account, error) {
	senderAccount, err := GetAccount(kv, sender)
	if err != nil {
		return meta.Account{}, err
	}
	if senderAccount.Balance < amount {
		return meta.Account{}, ErrInsufficientBalance
	}
	senderAccount.Balance -= amount
	return senderAccount, put(kv, senderAccount)
}

// 接收方账户不存在时自动创建
func AddBalance(kv levelDB.ReadWriter, receiver string, amount int64) (meta.Account, error) {
	receiverAccount, err := GetAccount(kv, receiver)
	if errors.Is(err, ErrAccountNotFound) {
		receiverAccount = meta.Account{Address: receiver}
	} else if err != nil {
		return meta.Account{}, err
	}
	if receiverAccount.Balance > math.MaxInt64-amount {
		return meta.Account{}, ErrBalanceOverflow
	}
	receiverAccount.Balance += amount
	return receiverAccount, put(kv, receiverAccount)
}

// Transfer 由 from 向 to 转账，余额不足时不做任何修改
func Transfer(kv levelDB.ReadWriter, from, to string, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if !CanTransfer(kv, from, amount) {
		return ErrInsufficientBalance
	}
	if _, err := SubBalance(kv, from, amount); err != nil {
		return err
	}
	if _, err := AddBalance(kv, to, amount); err != nil {
		return err
	}
	return nil
}

// 获取所有账户
func GetAllAccounts(kv levelDB.Reader) ([]meta.Account, error) {
	var all []meta.Account
	err := kv.Iterate(common.AccountPrefix, func(key string, value []byte) error {
		var acc meta.Account
		if err := json.Unmarshal(value, &acc); err != nil {
			return err
		}
		all = append(all, acc)
		return nil
	})
	return all, err
}

// 全部账户余额之和，转账前后应保持不变
func TotalSupply(kv levelDB.Reader) (int64, error) {
	all, err := GetAllAccounts(kv)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, acc := range all {
		total += acc.Balance
	}
	return total, nil
}

// 持久化（每次对账户信息的更改都写入 kv）
func put(kv levelDB.ReadWriter, acc meta.Account) error {
	bytes, err := json.Marshal(acc)
	if err != nil {
		return err
	}
	return kv.Put(accountKey(acc.Address), bytes)
}
