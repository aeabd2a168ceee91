package common

// levelDB 账户的key前缀 （key: AccountPrefix+账户地址 - val: meta.Account）
const AccountPrefix = "account_"

// Faucet 账户（创世时持有全部供应量，用于注册账户时给新账户转账）
const FaucetAccountAddress = "FaucetAccountAddress"

// 注册账户默认获得的余额
const InitBalance = 10000
