package bot

// User-facing message templates. Markdown parse mode.
const (
	msgWelcome = "👋 *AI Discipline & Skills Bot*\n\n" +
		"🆓 Free: 3 posts/day\n" +
		"💰 Paid: Higher limits\n\n" +
		"👇 Start below"

	msgPaidPlans = "💼 *Paid Plans*\n\n" +
		"₹299 / month\n" +
		"• 20 posts/day\n\n" +
		"₹999 Lifetime\n" +
		"• Unlimited posts\n\n" +
		"Reply *PAID* to upgrade."

	msgLimitReached = "🚫 *Daily limit reached*\n\n" +
		"Your plan's daily quota is used up. Try again tomorrow or upgrade."

	msgInProgress = "⏳ A generation is already running for you. Wait for it to finish."

	msgGenerating = "Generating… ⏳"

	msgUpstreamBusy = "AI busy. Try again later. Your credit was not used."

	msgInternalError = "Something went wrong. Try again later."

	msgChoosePlatform = "Choose platform:"
	msgChooseType     = "Choose content type:"
	msgChooseLanguage = "Choose language:"

	msgSessionExpired = "Menu expired. Tap ✍️ Generate Content to start again."

	msgSendProof       = "💳 Send payment screenshot or TXN ID."
	msgProofReceived   = "⏳ Verification in progress."
	msgPlanActivated   = "✅ Paid plan activated."
	msgPaymentRejected = "❌ Payment could not be verified. Contact support."
)
