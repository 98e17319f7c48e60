package dialog

// State identifies a step of the registration/edit conversation.
type State string

const (
	// StateMainMenu is the initial state and the state every completed or
	// cancelled operation returns to.
	StateMainMenu State = "main_menu"

	// Registration flow.
	StateAwaitingName      State = "awaiting_name"
	StateAwaitingBirthdate State = "awaiting_birthdate"

	// Profile edit flow.
	StateProfileMenu                  State = "profile_menu"
	StateAwaitingNewName              State = "awaiting_new_name"
	StateAwaitingNewBirthdate         State = "awaiting_new_birthdate"
	StateAwaitingLifeExpectancyChoice State = "awaiting_life_expectancy_choice"
	StateAwaitingCustomLifeExpectancy State = "awaiting_custom_life_expectancy"
	StateAwaitingNotificationChoice   State = "awaiting_notification_choice"
	StateAwaitingDeleteConfirmation   State = "awaiting_delete_confirmation"
)
