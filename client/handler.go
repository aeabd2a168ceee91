package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/cloudflare/cfssl/log"
	"github.com/gin-gonic/gin"
	"github.com/ssbcFund/account"
	"github.com/ssbcFund/common"
	"github.com/ssbcFund/contract"
	"github.com/ssbcFund/contract/crowdfunding"
	"github.com/ssbcFund/meta"
	"github.com/ssbcFund/util"
)

// 调用方法名，签名原文的一部分
const (
	MethodCreateCampaign     = "CreateCampaign"
	MethodFundCampaign       = "FundCampaign"
	MethodWithdrawFunds      = "WithdrawFunds"
	MethodRefundContribution = "RefundContribution"
)

// getEvents 默认返回的条数
const defaultEventCount = 100

func Cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		method := c.Request.Method

		origin := c.Request.Header.Get("Origin")

		if origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Headers", "Content-Type,AccessToken,X-CSRF-Token, Authorization") //自定义 Header
			c.Header("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
			c.Header("Access-Control-Expose-Headers", "Content-Length, Access-Control-Allow-Origin, Access-Control-Allow-Headers, Content-Type")
			c.Header("Access-Control-Allow-Credentials", "true")
		}

		if method == "OPTIONS" {
			c.Header("Access-Control-Allow-Origin", "*")
			c.Header("Access-Control-Allow-Headers", "Content-Type,AccessToken,X-CSRF-Token, Authorization") //自定义 Header
			c.Header("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
			c.Header("Access-Control-Allow-Credentials", "true")
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

//账户注册
func (s *Server) registerAccount(ctx *gin.Context) {
	//首先生成公私钥
	priKey, pubKey, err := util.GetKeyPair()
	if err != nil {
		log.Errorf("[registerAccount] generate key error: %s", err)
		ctx.JSON(http.StatusOK, errorResponse(err))
		return
	}
	//将公钥hash作为账户地址,256位
	address := util.AddressFromPublicKey(pubKey)

	// 新账户的初始余额从 faucet 转入，总供应量不变
	err = s.ledger.Invoke(ctx.Request.Context(), common.FaucetAccountAddress, func(c *contract.Context) error {
		if err := c.OpenAccount(address, string(pubKey)); err != nil {
			return err
		}
		if s.opts.InitBalance > 0 {
			if err := c.Transfer(common.FaucetAccountAddress, address, s.opts.InitBalance); err != nil {
				return err
			}
		}
		c.Emit(common.EventAccountRegistered, "", s.opts.InitBalance, map[string]interface{}{
			"address": address,
		})
		return nil
	})
	if err != nil {
		log.Errorf("[registerAccount] %s", err)
		ctx.JSON(http.StatusOK, errorResponse(err))
		return
	}
	log.Infof("account %s registered", address)

	// 私钥只在注册响应中返回一次，服务端不保存

	ctx.JSON(http.StatusOK, goodResponse(meta.ChainAccount{
		AccountAddress: address,
		PublicKey:      string(pubKey),
		PrivateKey:     string(priKey),
		Balance:        s.opts.InitBalance,
	}))
}

// 创建众筹活动
func (s *Server) postCampaign(ctx *gin.Context) {
	args := meta.CreateCampaignArgs{}
	caller, ok := s.bindSigned(ctx, MethodCreateCampaign, &args)
	if !ok {
		return
	}
	campaign, err := s.program.CreateCampaign(ctx.Request.Context(), caller, args.Title, args.Description, args.TargetAmount, args.Deadline)
	respond(ctx, campaign, err)
}

// 出资
func (s *Server) fundCampaign(ctx *gin.Context) {
	args := meta.FundCampaignArgs{}
	caller, ok := s.bindSigned(ctx, MethodFundCampaign, &args)
	if !ok {
		return
	}
	contribution, err := s.program.FundCampaign(ctx.Request.Context(), caller, args.Campaign, args.Amount)
	respond(ctx, contribution, err)
}

// 发起人提取
func (s *Server) withdrawFunds(ctx *gin.Context) {
	args := meta.WithdrawFundsArgs{}
	caller, ok := s.bindSigned(ctx, MethodWithdrawFunds, &args)
	if !ok {
		return
	}
	amount, err := s.program.WithdrawFunds(ctx.Request.Context(), caller, args.Campaign)
	respond(ctx, gin.H{"campaign": args.Campaign, "amount": amount}, err)
}

// 出资人退款
func (s *Server) refundContribution(ctx *gin.Context) {
	args := meta.RefundContributionArgs{}
	caller, ok := s.bindSigned(ctx, MethodRefundContribution, &args)
	if !ok {
		return
	}
	refund, err := s.program.RefundContribution(ctx.Request.Context(), caller, args.Campaign, args.Contribution)
	respond(ctx, refund, err)
}

// bindSigned 解析并校验带签名的请求，失败时已经写好响应
func (s *Server) bindSigned(ctx *gin.Context, method string, args interface{}) (string, bool) {
	req := meta.SignedRequest{}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Errorf("[%s] json decode err: %s", method, err)
		ctx.JSON(http.StatusOK, errResponse("请求格式错误"))
		return "", false
	}
	if req.Method != method {
		ctx.JSON(http.StatusOK, errResponse(fmt.Sprintf("方法不匹配: %s", req.Method)))
		return "", false
	}
	caller, err := contract.Authenticate(req)
	if err != nil {
		log.Infof("[%s] %s", method, err)
		ctx.JSON(http.StatusOK, errorResponse(err))
		return "", false
	}
	if err := json.Unmarshal([]byte(req.Args), args); err != nil {
		log.Errorf("[%s] args decode err: %s", method, err)
		ctx.JSON(http.StatusOK, errResponse("参数错误"))
		return "", false
	}
	return caller, true
}

//账本信息query服务
func (s *Server) query(ctx *gin.Context) {
	data, _ := ctx.GetRawData()
	log.Infof("[client] 收到查询请求: %s", string(data))

	q := meta.Query{}
	if err := json.Unmarshal(data, &q); err != nil {
		log.Error("[query],json decode err:", err)
		ctx.JSON(http.StatusOK, errResponse("请求格式错误"))
		return
	}

	var response meta.HttpResponse
	switch q.Type {
	case "getCampaign": // 获取指定活动
		if len(q.Parameters) < 1 {
			response = errResponse("参数错误")
			break
		}
		campaign, err := s.program.GetCampaign(q.Parameters[0])
		if err != nil {
			response = errorResponse(err)
			break
		}
		response = goodResponse(campaignView{Campaign: campaign, Status: campaign.Status(s.program.Now())})

	case "getAllCampaigns": // 获取所有活动
		campaigns, err := s.program.ListCampaigns()
		if err != nil {
			response = errorResponse(err)
			break
		}
		now := s.program.Now()
		all := make([]campaignView, 0, len(campaigns))
		for _, c := range campaigns {
			all = append(all, campaignView{Campaign: c, Status: c.Status(now)})
		}
		response = goodResponse(all)

	case "getContributions": // 获取活动的全部出资记录
		if len(q.Parameters) < 1 {
			response = errResponse("参数错误")
			break
		}
		contributions, err := s.program.ListContributions(q.Parameters[0])
		response = result(contributions, err)

	case "getContribution": // 参数: 活动地址, 出资人地址
		if len(q.Parameters) < 2 {
			response = errResponse("参数错误")
			break
		}
		contribution, err := s.program.GetContribution(q.Parameters[0], q.Parameters[1])
		response = result(contribution, err)

	case "getAccount": // 获取账户，不含私钥
		if len(q.Parameters) < 1 {
			response = errResponse("参数错误")
			break
		}
		response = result(s.getAccount(q.Parameters[0]))

	case "getAllAccounts": // 获取所有的账户（包括托管账户），不返回私钥
		var all []meta.Account
		err := s.ledger.View(func(v *contract.View) error {
			var err error
			all, err = v.Accounts()
			return err
		})
		response = result(all, err)

	case "getEvents": // 最近的账本事件
		n := defaultEventCount
		if len(q.Parameters) > 0 {
			v, err := strconv.Atoi(q.Parameters[0])
			if err != nil || v <= 0 {
				response = errResponse("参数错误")
				break
			}
			n = v
		}
		events, err := s.history.Recent(ctx.Request.Context(), n)
		response = result(events, err)

	default:
		log.Info("Query参数有误!")
		response = errResponse("Query参数有误!")
	}

	ctx.JSON(http.StatusOK, response)
}

type campaignView struct {
	meta.Campaign
	Status string `json:"status"`
}

func (s *Server) getAccount(address string) (meta.ChainAccount, error) {
	var res meta.ChainAccount
	err := s.ledger.View(func(v *contract.View) error {
		acc, err := v.Account(address)
		if err != nil {
			return err
		}
		res.AccountAddress = acc.Address
		res.PublicKey = acc.PublicKey
		res.Balance = acc.Balance
		return nil
	})
	return res, err
}

func respond(ctx *gin.Context, data interface{}, err error) {
	ctx.JSON(http.StatusOK, result(data, err))
}

func result(data interface{}, err error) meta.HttpResponse {
	if err != nil {
		return errorResponse(err)
	}
	return goodResponse(data)
}

// 正常响应，返回数据
func goodResponse(data interface{}) meta.HttpResponse {
	res := meta.HttpResponse{
		Data: data,
		Code: 20000,
	}
	return res
}

// 出现异常，返回异常信息
func errResponse(errMsg string) meta.HttpResponse {
	res := meta.HttpResponse{
		Error: errMsg,
		Data:  "",
		Code:  20000,
	}
	return res
}

// errorResponse 按错误类型填写 ErrorCode
func errorResponse(err error) meta.HttpResponse {
	res := errResponse(err.Error())

	var pe *crowdfunding.Error
	var te *contract.TransferError
	switch {
	case errors.As(err, &pe):
		res.ErrorCode = pe.Name
	case errors.As(err, &te):
		if errors.Is(te, account.ErrInsufficientBalance) {
			res.ErrorCode = "InsufficientBalance"
		} else {
			res.ErrorCode = "TransferFailed"
		}
	case errors.Is(err, contract.ErrDuplicateKey):
		res.ErrorCode = "DuplicateKey"
	case errors.Is(err, contract.ErrUnauthenticated):
		res.ErrorCode = "Unauthenticated"
	case errors.Is(err, contract.ErrRecordNotFound):
		res.ErrorCode = "RecordNotFound"
	}
	return res
}
