package engine

// User-visible message text. Kept in one place so the wording stays
// consistent across handlers.
const (
	msgAccessDenied = "Access denied."
	msgPrivateOnly  = "Please message me directly to use this command."
	msgNeedKey      = "No API key on file. Send /start in a private chat to set one up."

	msgAskKey      = "Send me your mataroa API key. You can find it in your blog settings under API."
	msgKeySaved    = "API key saved. Use /new to write a post or /list to browse your existing ones."
	msgKeyInvalid  = "That does not look like an API key. Please send the key by itself."
	msgAlreadySet  = "You already have an API key on file. Use /new to write a post or /list to browse."

	msgAskTitle      = "What is the title of your post?"
	msgTitleEmpty    = "The title cannot be empty. Please send a title."
	msgResumeDraft   = "You have an unfinished draft. Keep sending text to continue it, or press Done when ready."
	msgAskBody       = "Now send me the body. You can send several messages; each one becomes a new paragraph. Press Done when you are finished."
	msgBodyEmpty     = "That message was empty. Send some text, or press Done."
	msgChunkAdded    = "Added. Keep going, or press Done."
	msgChunkUndone   = "Removed the last part."
	msgNothingToUndo = "Nothing to undo."
	msgDraftCleared  = "Draft body cleared. Send new text, or Cancel to stop."
	msgNoBodyYet     = "The body is still empty. Send at least one message first."
	msgChoosePublish = "Should this post be published right away, or saved as a draft?"
	msgUnknownTmpl   = "Unknown template."

	msgAskUpdateSlug   = "Which post? Send its slug."
	msgSlugInvalid     = "That is not a valid slug. Slugs use lowercase letters, digits and hyphens."
	msgStaleRef        = "That reference is invalid or stale. Open the list again and retry from there."
	msgAskNewTitle     = "Send the new title, or /skip to keep the current one."
	msgAskNewBody      = "Send the new body, or /skip to keep the current one."
	msgAskDeleteSlug   = "Which post should I delete? Send its slug."
	msgConfirmDelete   = "Delete this post? This cannot be undone once it runs."
	msgDeleteTooLate   = "Too late, that deletion already went through."
	msgDeleteCancelled = "Deletion cancelled."

	msgCancelled      = "Cancelled. Your draft, if any, is kept; /new resumes it."
	msgNothingCancel  = "Nothing to cancel."
	msgNothingToRetry = "Nothing to retry."
	msgSlowDown       = "One moment..."

	msgNoPosts = "No posts matched. Try a different filter, or /new to write one."

	msgHelp = `I post to your mataroa.blog for you.

/new - write a new post (or: /new Title | Body)
/list - browse your posts
/drafts, /published - filtered lists
/search <text> - search titles and bodies
/settings - your preferences
/status - check the publishing API
/cancel - abandon the current flow

While drafting: send messages to add paragraphs, /undo removes the
last one, /preview shows the result, /done finishes.`
)
