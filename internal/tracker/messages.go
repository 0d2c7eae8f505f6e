package tracker

import (
	"fmt"

	"fetcharr/internal/media"
)

// User-facing message builders. Wording follows the tone users already
// know from the chat front end: apologetic on failure, promissory on
// progress.

func timeoutMessage(name string) string {
	return fmt.Sprintf("Sorry, your request for **%s** has timed out. If you are still interested, please submit a new request.", name)
}

func alreadyAvailableMessage(mediaType media.Type) string {
	if mediaType == media.TypeShow {
		return "Good news, this show is already being monitored and added to the library! The latest episodes should already be downloaded, and new episodes will be downloaded as they become available."
	}
	return "Good news, this movie should already be available! Check the library, and if you don't see it feel free to reach out to an administrator. Thanks!"
}

func monitoredNotAvailableMessage(mediaType media.Type) string {
	if mediaType == media.TypeShow {
		return "Good news! This show is already being monitored, though it's not available yet. I'll let you know when I'm able to get the first season of this show!"
	}
	return "Good news! This movie is already being monitored, though it's not available yet. I will keep your request open and notify you as soon as this movie is added!"
}

func addedAvailableMessage(mediaType media.Type) string {
	if mediaType == media.TypeShow {
		return "Your request was successfully added and will be downloaded shortly! I'll let you know when I get the first season downloaded."
	}
	return "Your request was successfully added and will be downloaded shortly! I'll let you know when it's finished."
}

func addedPendingMessage(mediaType media.Type) string {
	if mediaType == media.TypeShow {
		return "I've added this show, but it's not yet available for download. I'll let you know as soon as I get ahold of it!"
	}
	return "I've added this movie, but it's not yet available for download. I'll let you know as soon as we get ahold of it!"
}

func lostTrackMessage(title string) string {
	return fmt.Sprintf("Sorry! I seem to have lost track of your request for **%s** while it was downloading... Please send another request if you think this was a mistake.", title)
}

func finishedMessage(mediaType media.Type, title string) string {
	if mediaType == media.TypeShow {
		return fmt.Sprintf("The first season of %s has been downloaded and should be available in the library soon! Further episodes will be downloaded as they come available.", title)
	}
	return fmt.Sprintf("Your request for %s has finished downloading and should be available in the library shortly!", title)
}
