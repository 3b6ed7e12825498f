package pipeline

import (
	"github.com/hamdanlabs/concierge/internal/ai"
	"github.com/hamdanlabs/concierge/internal/lang"
)

// Every failure path maps to one of this small fixed set of user-facing
// strings, localized by detected language. Raw provider errors never reach
// the channel.

func replyQuota(l lang.Language) string {
	if l == lang.Arabic {
		return "نستقبل عددًا كبيرًا من الطلبات حاليًا. يرجى المحاولة مرة أخرى بعد قليل."
	}
	return "We're handling a lot of requests right now. Please try again in a little while."
}

func replyTransient(l lang.Language) string {
	if l == lang.Arabic {
		return "حدث خطأ مؤقت من جهتنا. يرجى إعادة إرسال رسالتك."
	}
	return "Something went wrong on our side. Please resend your message."
}

func replyFatal(l lang.Language) string {
	if l == lang.Arabic {
		return "عذرًا، لا يمكننا معالجة طلبك الآن."
	}
	return "Sorry, we can't process your request right now."
}

func replyUnsupportedMedia(l lang.Language) string {
	if l == lang.Arabic {
		return "عذرًا، لا ندعم هذا النوع من الملفات."
	}
	return "Sorry, we don't support that kind of attachment."
}

func replyCapabilityUnavailable(l lang.Language) string {
	if l == lang.Arabic {
		return "هذه الخدمة غير متوفرة حاليًا."
	}
	return "That feature isn't available right now."
}

func replyEmptyVoice(l lang.Language) string {
	if l == lang.Arabic {
		return "لم نتمكن من سماع الرسالة الصوتية. يرجى المحاولة مرة أخرى."
	}
	return "We couldn't make out that voice note. Please try again."
}

// failureReply maps a gateway failure classification to its fixed string.
func failureReply(class ai.Classification, l lang.Language) string {
	switch class {
	case ai.ClassQuota:
		return replyQuota(l)
	case ai.ClassFatal:
		return replyFatal(l)
	default:
		return replyTransient(l)
	}
}
