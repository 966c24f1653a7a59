package email

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"html/template"
	"net/smtp"
	"path/filepath"

	"novamall/pkg/logger"
)

// Config 邮件配置
type Config struct {
	Host     string // SMTP服务器地址
	Port     int    // SMTP服务器端口
	Username string // 邮箱账号
	Password string // 邮箱密码
	From     string // 发件人
	FromName string // 发件人名称
}

// EmailType 邮件类型
type EmailType string

const (
	// TypeOrderConfirmed 下单成功邮件
	TypeOrderConfirmed EmailType = "order_confirmed"
	// TypePaymentReceived 支付成功邮件
	TypePaymentReceived EmailType = "payment_received"
	// TypeOrderShipped 订单发货邮件
	TypeOrderShipped EmailType = "order_shipped"
)

// EmailData 邮件数据
type EmailData struct {
	To          string // 收件人
	Subject     string // 邮件主题
	UserName    string // 用户名
	OrderNo     string // 订单号
	TotalAmount string // 订单金额
	Currency    string // 币种
	StoreName   string // 商城名称
}

// Service 邮件服务
type Service struct {
	config Config
	logger *logger.Logger
}

// NewService 创建邮件服务
func NewService(config Config, logger *logger.Logger) *Service {
	return &Service{
		config: config,
		logger: logger,
	}
}

// SendEmail 发送邮件
func (s *Service) SendEmail(emailType EmailType, data EmailData) error {
	if data.StoreName == "" {
		data.StoreName = "NovaMall"
	}

	// 根据邮件类型设置主题
	if data.Subject == "" {
		switch emailType {
		case TypeOrderConfirmed:
			data.Subject = fmt.Sprintf("%s - 订单 %s 已创建", data.StoreName, data.OrderNo)
		case TypePaymentReceived:
			data.Subject = fmt.Sprintf("%s - 订单 %s 支付成功", data.StoreName, data.OrderNo)
		case TypeOrderShipped:
			data.Subject = fmt.Sprintf("%s - 订单 %s 已发货", data.StoreName, data.OrderNo)
		}
	}

	// 渲染邮件内容
	content, err := s.renderTemplate(string(emailType), data)
	if err != nil {
		return fmt.Errorf("渲染邮件模板失败: %w", err)
	}

	return s.send(data.To, data.Subject, content)
}

// SendOrderConfirmation 发送下单成功邮件
func (s *Service) SendOrderConfirmation(to, userName, orderNo, amount, currency string) error {
	return s.SendEmail(TypeOrderConfirmed, EmailData{
		To:          to,
		UserName:    userName,
		OrderNo:     orderNo,
		TotalAmount: amount,
		Currency:    currency,
	})
}

// SendPaymentReceived 发送支付成功邮件
func (s *Service) SendPaymentReceived(to, userName, orderNo, amount, currency string) error {
	return s.SendEmail(TypePaymentReceived, EmailData{
		To:          to,
		UserName:    userName,
		OrderNo:     orderNo,
		TotalAmount: amount,
		Currency:    currency,
	})
}

// renderTemplate 渲染邮件模板
func (s *Service) renderTemplate(templateName string, data EmailData) (string, error) {
	templateFile := fmt.Sprintf("%s.html", templateName)
	tmplPath := filepath.Join("templates", "email", templateFile)

	tmpl, err := template.ParseFiles(tmplPath)
	if err != nil {
		return "", fmt.Errorf("解析邮件模板失败: %w", err)
	}

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, data); err != nil {
		return "", fmt.Errorf("执行邮件模板失败: %w", err)
	}

	return buf.String(), nil
}

// send 发送邮件
func (s *Service) send(to, subject, body string) error {
	// 设置邮件头
	header := make(map[string]string)
	header["From"] = fmt.Sprintf("%s <%s>", s.config.FromName, s.config.From)
	header["To"] = to
	header["Subject"] = subject
	header["MIME-Version"] = "1.0"
	header["Content-Type"] = "text/html; charset=UTF-8"

	// 组装邮件内容
	message := ""
	for k, v := range header {
		message += fmt.Sprintf("%s: %s\r\n", k, v)
	}
	message += "\r\n" + body

	auth := smtp.PlainAuth(
		"",
		s.config.Username,
		s.config.Password,
		s.config.Host,
	)

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	// 配置TLS
	tlsConfig := &tls.Config{
		InsecureSkipVerify: true,
		ServerName:         s.config.Host,
	}

	conn, err := tls.Dial("tcp", addr, tlsConfig)
	if err != nil {
		return fmt.Errorf("创建TLS连接失败: %w", err)
	}

	client, err := smtp.NewClient(conn, s.config.Host)
	if err != nil {
		return fmt.Errorf("创建SMTP客户端失败: %w", err)
	}
	defer client.Close()

	// 身份认证
	if err = client.Auth(auth); err != nil {
		return fmt.Errorf("SMTP认证失败: %w", err)
	}

	if err = client.Mail(s.config.From); err != nil {
		return fmt.Errorf("设置发件人失败: %w", err)
	}
	if err = client.Rcpt(to); err != nil {
		return fmt.Errorf("设置收件人失败: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("准备发送数据失败: %w", err)
	}
	if _, err = w.Write([]byte(message)); err != nil {
		return fmt.Errorf("写入邮件内容失败: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("关闭数据写入失败: %w", err)
	}

	s.logger.Info(fmt.Sprintf("邮件已发送至 %s", to))
	return nil
}
