package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// User Activity Metrics
	TotalUsers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "app_total_users",
		Help: "Total number of registered users in the application.",
	})
	NewUsersTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "app_new_users_total",
		Help: "Total number of new user registrations.",
	})
	LoginAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "app_login_attempts_total",
		Help: "Total number of login attempts (successful and failed).",
	}, []string{"status"}) // status: "success" or "failed"

	// Password reset flow
	PasswordResetRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "app_password_reset_requests_total",
		Help: "Password reset OTP requests by outcome.",
	}, []string{"outcome"}) // issued, unknown_email, rate_limited
	OTPVerificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "app_otp_verifications_total",
		Help: "OTP verification attempts by outcome.",
	}, []string{"outcome"})
	PasswordResetsCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "app_password_resets_completed_total",
		Help: "Total number of passwords changed through the reset flow.",
	})
	EmailDeliveryFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "app_email_delivery_failures_total",
		Help: "Emails that could not be delivered after all retries.",
	}, []string{"kind"})

	// Storefront
	ProductCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "app_product_created_total",
		Help: "Total number of products created.",
	})
	ReviewWrittenTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "app_review_written_total",
		Help: "Total number of reviews created or updated.",
	})
	OrdersCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "app_orders_created_total",
		Help: "Total number of orders placed.",
	}, []string{"payment_method"})
	OrderStatusChangesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "app_order_status_changes_total",
		Help: "Order status transitions by target status.",
	}, []string{"status"})
	ArticleViewsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "app_article_views_total",
		Help: "Total number of blog article reads.",
	})
	DescriptionsGeneratedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "app_descriptions_generated_total",
		Help: "Total number of product descriptions generated by the LLM.",
	})
)
